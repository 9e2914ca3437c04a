package agent

import (
	"encoding/json"
	"fmt"

	"webdriver-bridge/internal/bridge"
)

// jsString renders a Go string as a JSON (and therefore JS) string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// strings always marshal; this path is unreachable.
		return `""`
	}
	return string(b)
}

// jsValue renders an arbitrary JSON-able value as a JS literal.
func jsValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// elementScript builds the JS that locates an element by (selector, index,
// using) and binds it to `el`, followed by body. Mirrors eval_on_element.
func elementScript(selector string, index int, using, body string) string {
	switch using {
	case "shadow":
		return fmt.Sprintf(
			"var el=window.%s.findElementInShadow(%s);"+
				"if(!el)throw new Error(\"shadow element not found or stale\");"+
				"%s",
			bridge.Namespace, jsString(selector), body,
		)
	case "xpath":
		return fmt.Sprintf(
			"var __xr=document.evaluate(%s,document,null,"+
				"XPathResult.ORDERED_NODE_SNAPSHOT_TYPE,null);"+
				"var el=__xr.snapshotItem(%d);"+
				"if(!el)throw new Error(\"element not found\");"+
				"%s",
			jsString(selector), index, body,
		)
	default:
		return fmt.Sprintf(
			"var el=document.querySelectorAll(%s)[%d];"+
				"if(!el)throw new Error(\"element not found\");"+
				"%s",
			jsString(selector), index, body,
		)
	}
}

// findScript builds the JS for a top-level find against a css selector or
// an xpath expression, returning an array of {selector, index[, using]}.
func findScript(using, value string) string {
	v := jsString(value)
	if using == "xpath" {
		return fmt.Sprintf(
			"var r=document.evaluate(%s,document,null,XPathResult.ORDERED_NODE_SNAPSHOT_TYPE,null);"+
				"var a=[];for(var i=0;i<r.snapshotLength;i++)a.push({selector:%s,index:i,using:\"xpath\"});"+
				"return a",
			v, v,
		)
	}
	return fmt.Sprintf(
		"var els=document.querySelectorAll(%s);"+
			"var a=[];for(var i=0;i<els.length;i++)a.push({selector:%s,index:i});"+
			"return a",
		v, v,
	)
}

// findFromScript builds the JS for a parent-scoped find. Matches are
// re-tagged with a synthetic data attribute so the returned selector
// resolves directly against the top-level document on later calls.
func findFromScript(parentSelector string, parentIndex int, parentUsing, using, value string) string {
	var parentJS string
	if parentUsing == "xpath" {
		parentJS = fmt.Sprintf(
			"var __xr=document.evaluate(%s,document,null,"+
				"XPathResult.ORDERED_NODE_SNAPSHOT_TYPE,null);"+
				"var parent=__xr.snapshotItem(%d);"+
				"if(!parent)throw new Error('parent element not found');",
			jsString(parentSelector), parentIndex,
		)
	} else {
		parentJS = fmt.Sprintf(
			"var parent=document.querySelectorAll(%s)[%d];"+
				"if(!parent)throw new Error('parent element not found');",
			jsString(parentSelector), parentIndex,
		)
	}

	v := jsString(value)
	var childJS string
	if using == "xpath" {
		childJS = fmt.Sprintf(
			"var r=document.evaluate(%s,parent,null,XPathResult.ORDERED_NODE_SNAPSHOT_TYPE,null);"+
				"var a=[];for(var i=0;i<r.snapshotLength;i++){"+
				"var e=r.snapshotItem(i);var id='wd-'+(++window.__wdFindFromCtr);"+
				"e.setAttribute('data-wd-id',id);"+
				"a.push({selector:'[data-wd-id=\"'+id+'\"]',index:0})}"+
				"return a",
			v,
		)
	} else {
		childJS = fmt.Sprintf(
			"var els=parent.querySelectorAll(%s);"+
				"var a=[];for(var i=0;i<els.length;i++){"+
				"var id='wd-'+(++window.__wdFindFromCtr);"+
				"els[i].setAttribute('data-wd-id',id);"+
				"a.push({selector:'[data-wd-id=\"'+id+'\"]',index:0})}"+
				"return a",
			v,
		)
	}

	return "if(!window.__wdFindFromCtr)window.__wdFindFromCtr=0;" + parentJS + childJS
}

// shadowFindScript builds the JS for a shadow-root-scoped find. Matches are
// stashed in the Bridge's shadow cache and returned as using:"shadow" refs.
func shadowFindScript(hostSelector string, hostIndex int, hostUsing, value string) string {
	hostFindFn := "findElement"
	if hostUsing == "xpath" {
		hostFindFn = "findElementByXPath"
	}
	return fmt.Sprintf(
		"if(!window.__wdShadowCtr)window.__wdShadowCtr=0;"+
			"var host=window.%s.%s(%s,%d);"+
			"if(!host)throw new Error('host element not found');"+
			"var sr=host.shadowRoot;"+
			"if(!sr)throw new Error('no shadow root');"+
			"var els=sr.querySelectorAll(%s);"+
			"var a=[];for(var i=0;i<els.length;i++){"+
			"var id='wds-'+(++window.__wdShadowCtr);"+
			"window.%s.__shadowCache[id]=els[i];"+
			"a.push({selector:id,index:0,using:'shadow'})}"+
			"return a",
		bridge.Namespace, hostFindFn, jsString(hostSelector), hostIndex,
		jsString(value), bridge.Namespace,
	)
}

const computedRoleScript = `var tag=el.tagName.toLowerCase();
var role=el.getAttribute('role');
if(role)return role;
var map={button:'button',a:'link',h1:'heading',h2:'heading',h3:'heading',h4:'heading',h5:'heading',h6:'heading',
input:'textbox',textarea:'textbox',select:'combobox',option:'option',ul:'list',ol:'list',li:'listitem',
table:'table',tr:'row',td:'cell',th:'columnheader',img:'img',nav:'navigation',main:'main',header:'banner',
footer:'contentinfo',aside:'complementary',form:'form',details:'group',summary:'button',dialog:'dialog',
progress:'progressbar',meter:'meter'};
if(tag==='input'){var t=(el.getAttribute('type')||'text').toLowerCase();
if(t==='checkbox')return 'checkbox';if(t==='radio')return 'radio';
if(t==='range')return 'slider';if(t==='number')return 'spinbutton';
if(t==='search')return 'searchbox';return 'textbox'}
if(tag==='a'&&el.hasAttribute('href'))return 'link';
return map[tag]||'generic'`

const computedLabelScript = `var lblBy=el.getAttribute('aria-labelledby');
if(lblBy){var ids=lblBy.split(/\s+/);var parts=[];
for(var i=0;i<ids.length;i++){var e=document.getElementById(ids[i]);if(e)parts.push(e.textContent.trim())}
if(parts.length)return parts.join(' ')}
var lbl=el.getAttribute('aria-label');if(lbl)return lbl;
if(el.id){var labels=document.querySelectorAll('label[for="'+el.id+'"]');
if(labels.length)return labels[0].textContent.trim()}
if(el.placeholder)return el.placeholder;
if(el.alt)return el.alt;
if(el.title)return el.title;
return ''`

// setFilesScript builds the JS that synthesizes a DataTransfer from
// base64-encoded file payloads and assigns it to a file input.
func setFilesScript(files []FileInfo) string {
	return fmt.Sprintf(
		"if(el.tagName!=='INPUT'||el.type!=='file')throw new Error('element is not a file input');"+
			"var _files=%s;"+
			"var dt=new DataTransfer();"+
			"for(var i=0;i<_files.length;i++){"+
			"var raw=atob(_files[i].data);"+
			"var bytes=new Uint8Array(raw.length);"+
			"for(var j=0;j<raw.length;j++)bytes[j]=raw.charCodeAt(j);"+
			"dt.items.add(new File([bytes],_files[i].name,{type:_files[i].mime}));"+
			"}"+
			"el.files=dt.files;"+
			"el.dispatchEvent(new Event('input',{bubbles:true}));"+
			"el.dispatchEvent(new Event('change',{bubbles:true}));"+
			"return null",
		jsValue(files),
	)
}

// FileInfo is one file to synthesize on a file input element.
type FileInfo struct {
	Name string `json:"name"`
	Data string `json:"data"`
	Mime string `json:"mime"`
}

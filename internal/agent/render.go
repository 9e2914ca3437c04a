package agent

import (
	"fmt"

	"webdriver-bridge/internal/bridge"
)

// screenshotScript serializes the top-level document into an SVG
// foreignObject, rasterizes it through an off-screen canvas, and resolves
// with the base64 PNG payload. Asynchronous (image decode), so it is run
// through evalCallback rather than eval.
var screenshotScript = fmt.Sprintf(`(function(){try{
var el=document.documentElement;
var w=Math.max(el.scrollWidth,el.clientWidth);
var h=Math.max(el.scrollHeight,el.clientHeight);
var xml=new XMLSerializer().serializeToString(el);
var svg='<svg xmlns="http://www.w3.org/2000/svg" width="'+w+'" height="'+h+'">'
+'<foreignObject width="100%%" height="100%%">'+xml+'</foreignObject></svg>';
var c=document.createElement('canvas');c.width=w;c.height=h;
var ctx=c.getContext('2d');var img=new Image();
img.onload=function(){try{ctx.drawImage(img,0,0);
var d=c.toDataURL('image/png').split(',')[1];
window.%s.resolve(%s,d)}
catch(e){window.%s.resolve(%s,
{error:"SecurityError",message:e.message,stacktrace:""})}};
img.onerror=function(){window.%s.resolve(%s,
{error:"ScreenshotError",message:"SVG render failed",stacktrace:""})};
img.src='data:image/svg+xml;charset=utf-8,'+encodeURIComponent(svg)
}catch(e){window.%s.resolve(%s,
{error:e.name,message:e.message,stacktrace:e.stack||""})}})()`,
	bridge.Namespace, callbackPlaceholder, bridge.Namespace, callbackPlaceholder,
	bridge.Namespace, callbackPlaceholder, bridge.Namespace, callbackPlaceholder,
)

// elementScreenshotScript rasterizes the full page the same way, then
// crops to the located element's bounding rect.
func elementScreenshotScript(selector string, index int, using string) string {
	findFn := "findElement"
	if using == "xpath" {
		findFn = "findElementByXPath"
	}
	return fmt.Sprintf(`(function(){try{
var tgt=window.%[1]s.%[2]s(%[3]s,%[4]d);
if(!tgt){window.%[1]s.resolve(%[5]s,
{error:"NoSuchElement",message:"element not found",stacktrace:""});return}
var rect=tgt.getBoundingClientRect();
var el=document.documentElement;
var w=Math.max(el.scrollWidth,el.clientWidth);
var h=Math.max(el.scrollHeight,el.clientHeight);
var xml=new XMLSerializer().serializeToString(el);
var svg='<svg xmlns="http://www.w3.org/2000/svg" width="'+w+'" height="'+h+'">'
+'<foreignObject width="100%%" height="100%%">'+xml+'</foreignObject></svg>';
var fc=document.createElement('canvas');fc.width=w;fc.height=h;
var fctx=fc.getContext('2d');var img=new Image();
img.onload=function(){try{fctx.drawImage(img,0,0);
var c=document.createElement('canvas');
c.width=Math.ceil(rect.width);c.height=Math.ceil(rect.height);
var ctx=c.getContext('2d');
ctx.drawImage(fc,rect.x,rect.y,rect.width,rect.height,0,0,rect.width,rect.height);
var d=c.toDataURL('image/png').split(',')[1];
window.%[1]s.resolve(%[5]s,d)}
catch(e){window.%[1]s.resolve(%[5]s,
{error:"SecurityError",message:e.message,stacktrace:""})}};
img.onerror=function(){window.%[1]s.resolve(%[5]s,
{error:"ScreenshotError",message:"SVG render failed",stacktrace:""})};
img.src='data:image/svg+xml;charset=utf-8,'+encodeURIComponent(svg)
}catch(e){window.%[1]s.resolve(%[5]s,
{error:e.name,message:e.message,stacktrace:e.stack||""})}})()`,
		bridge.Namespace, findFn, jsString(selector), index, callbackPlaceholder,
	)
}

// printScript renders the page the same way as screenshotScript, then
// hand-assembles a minimal one-page PDF 1.4 wrapping the PNG as an
// ASCIIHexDecode XObject scaled to US Letter (612x792pt).
var printScript = fmt.Sprintf(`(function(){try{
var el=document.documentElement;
var w=Math.max(el.scrollWidth,el.clientWidth);
var h=Math.max(el.scrollHeight,el.clientHeight);
var xml=new XMLSerializer().serializeToString(el);
var svg='<svg xmlns="http://www.w3.org/2000/svg" width="'+w+'" height="'+h+'">'
+'<foreignObject width="100%%" height="100%%">'+xml+'</foreignObject></svg>';
var c=document.createElement('canvas');c.width=w;c.height=h;
var ctx=c.getContext('2d');var img=new Image();
img.onload=function(){try{ctx.drawImage(img,0,0);
var pngDataUrl=c.toDataURL('image/png');
var pngB64=pngDataUrl.split(',')[1];
var bin=atob(pngB64);var len=bin.length;
var imgW=w;var imgH=h;
var pageW=612;var pageH=792;
var scaleX=pageW/imgW;var scaleY=pageH/imgH;
var sc=Math.min(scaleX,scaleY);
var dw=Math.round(imgW*sc);var dh=Math.round(imgH*sc);
var objs=[];var offsets=[];
function addObj(s){offsets.push(objs.join('').length);objs.push(s)}
addObj('%%PDF-1.4\n');
addObj('1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n');
addObj('2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n');
addObj('3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 '+pageW+' '+pageH+'] /Contents 5 0 R /Resources << /XObject << /Img 4 0 R >> >> >>\nendobj\n');
var imgStream='4 0 obj\n<< /Type /XObject /Subtype /Image /Width '+imgW+' /Height '+imgH+' /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /ASCIIHexDecode /Length '+(len*2+1)+' >>\nstream\n';
var hexParts=[];for(var i=0;i<len;i++){
var byte=bin.charCodeAt(i);
hexParts.push(('0'+byte.toString(16)).slice(-2))}
imgStream+=hexParts.join('')+'>\nendstream\nendobj\n';
addObj(imgStream);
var contentStr='q '+dw+' 0 0 '+dh+' 0 '+(pageH-dh)+' cm /Img Do Q';
addObj('5 0 obj\n<< /Length '+contentStr.length+' >>\nstream\n'+contentStr+'\nendstream\nendobj\n');
var body=objs.join('');
var xrefOff=body.length;
var xref='xref\n0 6\n0000000000 65535 f \n';
for(var j=1;j<offsets.length;j++){
xref+=('0000000000'+offsets[j]).slice(-10)+' 00000 n \n'}
xref+='trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n'+xrefOff+'\n%%%%EOF';
var pdf=body+xref;
var pdfB64=btoa(pdf);
window.%[1]s.resolve(%[2]s,pdfB64)}
catch(e){window.%[1]s.resolve(%[2]s,
{error:e.name,message:e.message,stacktrace:e.stack||""})}};
img.onerror=function(){window.%[1]s.resolve(%[2]s,
{error:"PrintError",message:"SVG render failed",stacktrace:""})};
img.src='data:image/svg+xml;charset=utf-8,'+encodeURIComponent(svg)
}catch(e){window.%[1]s.resolve(%[2]s,
{error:e.name,message:e.message,stacktrace:e.stack||""})}})()`,
	bridge.Namespace, callbackPlaceholder,
)

// Package bridge holds the JavaScript payload injected into every web view
// the Automation Agent controls. The payload installs a namespaced helper
// object on the global scope that the Agent's synthesized scripts call into:
// a resolve callback for the script-result rendezvous, a shadow-element
// cache, a simulated cookie jar, a dialog-interception slot, and a handful
// of element-lookup helpers.
//
// None of this runs in Go. The constants here are assembled and evaluated
// inside the embedded web view through the host's eval primitive; the Agent
// never holds Bridge state itself.
package bridge

// Namespace is the global property the Bridge installs itself under.
const Namespace = "__WEBDRIVER__"

// ResolveHookName is the name of the host-provided function the Bridge
// calls to deliver a script result back across the process boundary. The
// host binding is responsible for wiring this to its own IPC channel; the
// Bridge only calls it.
const ResolveHookName = "__webdriverResolve"

// Init is the startup script. It must run once, before any user content,
// so that dialog interception and the cookie jar exist before the page's
// own scripts run.
const Init = `
(function(){
  if (window.` + Namespace + `) return;

  var ns = {
    cookies: {},
    __shadowCache: {},
    __dialog: { open: false, type: "", text: "", defaultValue: "", response: null },

    resolve: function(id, value) {
      window.` + ResolveHookName + `(id, value);
    },

    findElement: function(selector, index) {
      var els = document.querySelectorAll(selector);
      return els[index] || null;
    },

    findElementByXPath: function(selector, index) {
      var r = document.evaluate(selector, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
      return r.snapshotItem(index) || null;
    },

    findElementInShadow: function(id) {
      return ns.__shadowCache[id] || null;
    },

    getActiveElement: function() {
      var el = document.activeElement;
      if (!el || el === document.body) return null;
      if (!el.hasAttribute("data-wd-active")) {
        if (!window.__wdActiveCtr) window.__wdActiveCtr = 0;
        el.setAttribute("data-wd-active", "wda-" + (++window.__wdActiveCtr));
      }
      var tag = "[data-wd-active=\"" + el.getAttribute("data-wd-active") + "\"]";
      return { selector: tag, index: 0 };
    }
  };

  window.` + Namespace + ` = ns;

  var realAlert = window.alert;
  var realConfirm = window.confirm;
  var realPrompt = window.prompt;

  window.alert = function(text) {
    ns.__dialog = { open: true, type: "alert", text: String(text == null ? "" : text), defaultValue: "", response: null };
    return undefined;
  };
  window.confirm = function(text) {
    ns.__dialog = { open: true, type: "confirm", text: String(text == null ? "" : text), defaultValue: "", response: null };
    return false;
  };
  window.prompt = function(text, defaultValue) {
    ns.__dialog = {
      open: true,
      type: "prompt",
      text: String(text == null ? "" : text),
      defaultValue: String(defaultValue == null ? "" : defaultValue),
      response: null
    };
    return null;
  };

  // kept for parity with the non-intercepted globals, unused otherwise.
  ns.__realAlert = realAlert;
  ns.__realConfirm = realConfirm;
  ns.__realPrompt = realPrompt;
})();
`

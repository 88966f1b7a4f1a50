package code

import "strings"

// availableModules names what scripts can use instead of an import.
const availableModules = "pd, np and the FPL functions"

// ApprovedModules are the names require() resolves.
var ApprovedModules = []string{"pd", "np", "fpl"}

// DeniedBuiltins are bound to stubs that raise a CapabilityError when
// called.
var DeniedBuiltins = []string{
	"eval", "exec", "compile", "open", "input", "breakpoint", "exit", "quit",
}

// blockedModules are host-access modules whose import attempts get the
// stricter message.
var blockedModules = map[string]bool{
	// process and system
	"os": true, "sys": true, "subprocess": true, "child_process": true,
	"process": true, "signal": true, "threading": true, "multiprocessing": true,
	"worker_threads": true, "cluster": true, "ctypes": true, "vm": true,
	// filesystem
	"fs": true, "shutil": true, "pathlib": true, "path": true,
	// network
	"socket": true, "net": true, "http": true, "https": true, "http2": true,
	"urllib": true, "requests": true, "httpx": true, "dgram": true,
	"dns": true, "tls": true,
	// loading and serialization
	"importlib": true, "module": true, "pickle": true, "shelve": true,
	"marshal": true, "v8": true, "code": true, "codeop": true, "compileall": true,
}

// IsBlockedModule reports whether name refers to a host-access module.
// Scheme prefixes ("node:fs") and submodules ("os.path", "fs/promises")
// resolve to their base module.
func IsBlockedModule(name string) bool {
	return blockedModules[moduleBase(name)]
}

// IsApprovedModule reports whether require(name) may resolve.
func IsApprovedModule(name string) bool {
	for _, m := range ApprovedModules {
		if name == m {
			return true
		}
	}
	return false
}

func moduleBase(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexAny(name, "./"); i >= 0 {
		name = name[:i]
	}
	return name
}

// Package core provides call-site utilities for logbook.
// This file contains the helpers that turn raw runtime caller information into the
// short identifiers stored with each entry.
package core

import (
	"path"
	"runtime"
	"strings"
)

// CallSite identifies where an entry was logged from.
type CallSite struct {
	File     string // Short file identifier, see ShortFileName.
	Line     uint
	Function string
}

// ShortFileName reduces a source path to its base name without any extension,
// "/src/app/server.go" becomes "server".
func ShortFileName(file string) string {
	base := path.Base(strings.ReplaceAll(file, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	name, _, _ := strings.Cut(base, ".")
	return name
}

// ShortFunctionName strips the import path from a fully qualified function name,
// "github.com/acme/app/server.(*Server).Run" becomes "server.(*Server).Run".
func ShortFunctionName(function string) string {
	if i := strings.LastIndex(function, "/"); i >= 0 {
		return function[i+1:]
	}
	return function
}

// Caller captures the call site skip frames above the caller of Caller.
// It returns a zero CallSite if the runtime has no information for that frame.
func Caller(skip int) CallSite {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return CallSite{}
	}

	site := CallSite{
		File: ShortFileName(file),
		Line: uint(line),
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		site.Function = ShortFunctionName(fn.Name())
	}
	return site
}

// Package noconsolelog implements an analyzer that forbids writing to the
// console outside package main. Library code logs through the injected
// *zap.SugaredLogger instead.
package noconsolelog

import (
	"go/ast"
	"go/types"
	"strconv"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports fmt.Print*, log.Print*/Fatal*/Panic* and the print and
// println builtins in non-main packages.
var Analyzer = &analysis.Analyzer{
	Name: "noconsolelog",
	Doc:  "forbid console printing and the std log package outside package main",
	Run:  run,
}

var forbidden = map[string]map[string]bool{
	"fmt": {"Print": true, "Printf": true, "Println": true},
	"log": {
		"Print": true, "Printf": true, "Println": true,
		"Fatal": true, "Fatalf": true, "Fatalln": true,
		"Panic": true, "Panicf": true, "Panicln": true,
	},
}

func run(pass *analysis.Pass) (any, error) {
	if pass.Pkg == nil || pass.Pkg.Name() == "main" {
		return nil, nil
	}

	for _, f := range pass.Files {
		if isGenerated(f) || importsTesting(f) {
			continue
		}

		ast.Inspect(f, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			switch fun := call.Fun.(type) {
			case *ast.Ident:
				if b, ok := pass.TypesInfo.Uses[fun].(*types.Builtin); ok && (b.Name() == "print" || b.Name() == "println") {
					pass.Reportf(call.Pos(), "builtin %s writes to stderr; use the injected logger", b.Name())
				}
			case *ast.SelectorExpr:
				fn, ok := pass.TypesInfo.Uses[fun.Sel].(*types.Func)
				if !ok || fn.Pkg() == nil {
					return true
				}
				if names, ok := forbidden[fn.Pkg().Path()]; ok && names[fn.Name()] {
					pass.Reportf(call.Pos(), "%s.%s outside package main; use the injected logger", fn.Pkg().Path(), fn.Name())
				}
			}
			return true
		})
	}
	return nil, nil
}

func isGenerated(f *ast.File) bool {
	for _, cg := range f.Comments {
		for _, c := range cg.List {
			if strings.Contains(c.Text, "Code generated") && strings.Contains(c.Text, "DO NOT EDIT") {
				return true
			}
		}
	}
	return false
}

func importsTesting(f *ast.File) bool {
	for _, im := range f.Imports {
		if p, _ := strconv.Unquote(im.Path.Value); p == "testing" {
			return true
		}
	}
	return false
}

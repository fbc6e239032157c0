package goja

import (
	"context"
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// bodyPrefix wraps code in a function so that the code can have a
// top-level return.
const bodyPrefix = "function __body__() {\n"

// InlineRequires generates new source code that replaces top-level
// require("LIB") statements with the code that the provider gives
// for LIB.
//
// Goja can't easily combine Programs or modify ASTs, so this function
// rewrites the source text based on the positions that the AST
// reports.  Only statements at the top level of the source are
// considered.  The source is parsed as a function body.
func InlineRequires(ctx context.Context, src string, provider func(context.Context, string) (string, error)) (string, error) {

	p, err := parser.ParseFile(nil, "", bodyPrefix+src+"\n}", 0)
	if err != nil {
		return "", err
	}
	if len(p.Body) != 1 {
		return "", fmt.Errorf("can't parse body")
	}
	fd, is := p.Body[0].(*ast.FunctionDeclaration)
	if !is || fd.Function.Body == nil {
		return "", fmt.Errorf("can't parse body")
	}

	// Idx values are 1-based and include the prefix.
	offset := len(bodyPrefix) + 1

	type required struct {
		// from and to are offsets into src.
		from, to int
		name     string
	}

	requires := make([]required, 0, 4)

	for _, s := range fd.Function.Body.List {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}

		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}

		id, is := call.Callee.(*ast.Identifier)
		if !is || id.Name != "require" {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return "", fmt.Errorf("bad require args: %#v", call.ArgumentList)
		}

		lit, is := call.ArgumentList[0].(*ast.StringLiteral)
		if !is {
			return "", fmt.Errorf("bad require arg: %#v", call.ArgumentList[0])
		}

		requires = append(requires, required{
			from: int(exps.Idx0()) - offset,
			to:   int(exps.Idx1()) - offset,
			name: string(lit.Value),
		})
	}

	if len(requires) == 0 {
		return src, nil
	}

	inlined := ""
	last := 0
	for _, r := range requires {
		lib, err := provider(ctx, r.name)
		if err != nil {
			return "", err
		}
		inlined += src[last:r.from] + lib
		last = r.to
		if last < len(src) && src[last] == ';' {
			last++
		}
	}
	inlined += src[last:]

	return inlined, nil
}

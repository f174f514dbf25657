package symbols

import (
	"errors"
	"reflect"
	"testing"

	"rillcheck/internal/ast"
	"rillcheck/internal/testkit"
)

func TestBuild_QualifiesModuleFunctions(t *testing.T) {
	prog := testkit.Program("m.rill",
		testkit.Fn("main", 1),
		&ast.ModuleDecl{
			Name:  "Store",
			Funcs: []*ast.FuncDecl{testkit.EffectFn("save", 6, []string{"Database"})},
			Span:  testkit.At(5, 1),
		},
	)

	table, err := Build(prog)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
	if _, ok := table.Lookup("save"); ok {
		t.Errorf("bare name must not resolve for module functions")
	}
	sig, ok := table.Lookup("Store.save")
	if !ok {
		t.Fatalf("Store.save not found")
	}
	if !reflect.DeepEqual(sig.DeclaredEffects, []string{"Database"}) {
		t.Errorf("effects = %v", sig.DeclaredEffects)
	}
	if got := table.Names(); !reflect.DeepEqual(got, []string{"Store.save", "main"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestBuild_DuplicateIsFatal(t *testing.T) {
	prog := testkit.Program("m.rill",
		testkit.Fn("main", 1),
		testkit.Fn("main", 9),
	)
	_, err := Build(prog)
	if !errors.Is(err, ErrDuplicateFunction) {
		t.Fatalf("err = %v, want ErrDuplicateFunction", err)
	}
}

func TestBuild_SameNameDifferentModules(t *testing.T) {
	prog := testkit.Program("m.rill",
		&ast.ModuleDecl{Name: "A", Funcs: []*ast.FuncDecl{testkit.Fn("run", 2)}, Span: testkit.At(1, 1)},
		&ast.ModuleDecl{Name: "B", Funcs: []*ast.FuncDecl{testkit.Fn("run", 6)}, Span: testkit.At(5, 1)},
		testkit.Fn("run", 10),
	)
	table, err := Build(prog)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, name := range []string{"A.run", "B.run", "run"} {
		if _, ok := table.Lookup(name); !ok {
			t.Errorf("%s not found", name)
		}
	}
}

func TestBuild_DedupesDeclaredEffects(t *testing.T) {
	prog := testkit.Program("m.rill",
		testkit.EffectFn("f", 1, []string{"Network", "Database", "Network"}),
	)
	table, err := Build(prog)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	sig, _ := table.Lookup("f")
	if !reflect.DeepEqual(sig.DeclaredEffects, []string{"Network", "Database"}) {
		t.Errorf("effects = %v, want declaration order deduped", sig.DeclaredEffects)
	}
}

func TestSignature_ReturnsResult(t *testing.T) {
	prog := testkit.Program("m.rill",
		testkit.ResultFn("parse", 1),
		testkit.Fn("log", 5),
	)
	table, err := Build(prog)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	parse, _ := table.Lookup("parse")
	logFn, _ := table.Lookup("log")
	if !parse.ReturnsResult() {
		t.Errorf("parse should return Result")
	}
	if logFn.ReturnsResult() {
		t.Errorf("log should not return Result")
	}
}

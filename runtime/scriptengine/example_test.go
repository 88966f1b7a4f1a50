package scriptengine_test

import (
	"context"
	"fmt"
	"os"

	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/runtime/scriptengine"
	"github.com/jv92admin/fpltools/table"
)

func Example() {
	engine, err := scriptengine.New(scriptengine.Config{})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	root, err := os.MkdirTemp("", "scriptengine-example")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer os.RemoveAll(root)

	exec, err := code.NewDefaultExecutor(code.Config{Engine: engine, ScratchRoot: root})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	players := table.MustNew(
		table.StringColumn("web_name", []string{"Salah", "Palmer", "Isak"}),
		table.IntColumn("total_points", []int64{180, 160, 170}),
	)
	res := exec.ExecuteCode(context.Background(), code.ExecuteParams{
		Code: `top = rank_by(df_players, "total_points", {n: 2})
print(top.column("web_name").join(", "))
top.numRows()`,
		Context: map[string]any{"df_players": players},
	})

	fmt.Print(res.Stdout)
	fmt.Println("value:", res.Value)
	fmt.Println("tables:", len(res.Tables))
	// Output:
	// Salah, Isak
	// value: 2
	// tables: 1
}

func Example_capabilityError() {
	engine, _ := scriptengine.New(scriptengine.Config{})
	root, _ := os.MkdirTemp("", "scriptengine-example")
	defer os.RemoveAll(root)
	exec, _ := code.NewDefaultExecutor(code.Config{Engine: engine, ScratchRoot: root})

	res := exec.ExecuteCode(context.Background(), code.ExecuteParams{Code: `const fs = require("fs")`})
	fmt.Println(res.Error)
	// Output:
	// Import of 'fs' is not allowed in the sandbox. Available modules: pd, np and the FPL functions.
}

func ExampleFunctions() {
	for _, fn := range scriptengine.Functions()[:3] {
		fmt.Println(fn.ScriptName())
	}
	// Output:
	// add_rolling_mean
	// compute_form_trend
	// compute_fixture_difficulty
}

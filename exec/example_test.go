package exec_test

import (
	"context"
	"fmt"
	"os"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/backend/local"
	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/exec"
	"github.com/jv92admin/fpltools/runtime/scriptengine"
	"github.com/jv92admin/fpltools/table"
)

func ExampleExec_Analyze() {
	scratch, _ := os.MkdirTemp("", "example")
	defer os.RemoveAll(scratch)

	// Data sources
	season := local.New("season")
	season.Put("players", table.MustNew(
		table.MustColumn("web_name", "Salah", "Palmer", "Isak"),
		table.MustColumn("total_points", 180, 160, 170),
	))
	reg := backend.NewRegistry()
	_ = reg.Register(season)

	// Executor
	engine, _ := scriptengine.New(scriptengine.Config{})
	executor, _ := code.NewDefaultExecutor(code.Config{Engine: engine, ScratchRoot: scratch})

	x, err := exec.New(exec.Options{
		Executor: executor,
		Sources:  backend.NewAggregator(reg),
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	env, _ := x.Analyze(context.Background(), exec.Request{
		Code:   "best = rank_by(df_players, 'total_points', {n: 1})\nbest.column('web_name')[0]",
		Tables: []string{"players"},
	})
	fmt.Println("result:", env.Result)
	fmt.Println("tables:", env.TableNames())
	fmt.Println("bound:", env.Loaded)
	// Output:
	// result: Salah
	// tables: [best]
	// bound: [df_players]
}

func ExampleSignature() {
	catalog, err := exec.NewCatalog(scriptengine.Functions())
	if err != nil {
		fmt.Println(err)
		return
	}
	fn, _ := catalog.Function("fpl:compute_differentials")
	fmt.Println(exec.Signature(fn))
	// Output:
	// compute_differentials(squad_a, squad_b, player_col=player_id) -> table
}

func ExampleBindingName() {
	fmt.Println(exec.BindingName("season:player_gameweeks"))
	// Output:
	// df_player_gameweeks
}

package layout_test

import (
	"fmt"
	"time"

	"github.com/philipp01105/batchlog/core"
	"github.com/philipp01105/batchlog/layout"
)

func ExampleCompile() {
	l := layout.Compile("%thread|%level|%msg")
	e := core.NewEvent(core.InfoLevel, "orders", "t1", time.Now(), core.Text("hi"), nil)
	fmt.Println(l.Format(e))
	// Output: t1|INFO|hi
}

func ExampleWithDateFormat() {
	l := layout.Compile("%date %logger: %msg", layout.WithDateFormat(time.DateOnly))
	ts := time.Date(2026, 2, 18, 9, 30, 0, 0, time.UTC)
	e := core.NewEvent(core.WarnLevel, "billing", "main", ts, core.NewMessage("%d retries", 3), nil)
	fmt.Println(l.Format(e))
	// Output: 2026-02-18 billing: 3 retries
}

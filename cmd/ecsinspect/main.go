// Command ecsinspect uses an in-memory world, or with -db loads (or
// creates) a persisted one, spawns a small demo hierarchy, and runs a
// relationship query against it: a worked example of the
// declare/register/build/execute pipeline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"unsafe"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/ecsquery/ecs"
	"github.com/wbrown/ecsquery/ecs/annotations"
	"github.com/wbrown/ecsquery/ecsmatch"
	"github.com/wbrown/ecsquery/ecsquery"
	"github.com/wbrown/ecsquery/worldstore"
)

// Position is a dense demo component.
type Position struct {
	X, Y float64
}

// ChildOf is a single-target relationship component: the stored entity is
// the parent. LinkedSpawn means despawning the parent cascades to
// children.
type ChildOf struct {
	Parent ecs.Entity
}

func (ChildOf) ComponentStorage() ecs.StorageClass { return ecs.Sparse }
func (ChildOf) ComponentRelationship() *ecs.RelationshipAccessor {
	return ecs.NewSingleRelationship(unsafe.Offsetof(ChildOf{}.Parent), true)
}

func main() {
	var dbPath string
	var trace bool
	var demo bool
	var help bool

	flag.StringVar(&dbPath, "db", "", "database path (empty: in-memory world)")
	flag.BoolVar(&trace, "trace", false, "show matcher trace events")
	flag.BoolVar(&demo, "demo", true, "spawn demo entities before querying")
	flag.BoolVar(&help, "h", false, "show help")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Spawns a small parent/child hierarchy and queries it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                 # in-memory demo\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -db world.db    # persisted demo\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -trace          # with matcher trace events\n", os.Args[0])
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}

	reg := ecs.NewRegistry()
	posId := ecs.Register[Position](reg)
	childOfId := ecs.Register[ChildOf](reg)

	var world ecsmatch.World
	if dbPath != "" {
		bw, err := worldstore.NewBadgerWorld(dbPath, reg)
		if err != nil {
			log.Fatalf("open world: %v", err)
		}
		defer bw.Close()
		worldstore.RegisterCodec[Position](bw, posId)
		worldstore.RegisterCodec[ChildOf](bw, childOfId)
		world = bw
		if demo {
			mustSpawnBadger(bw)
		}
	} else {
		mw := worldstore.NewWorld(reg)
		world = mw
		if demo {
			spawnMemory(mw)
		}
	}

	tb := ecsquery.NewTypedBuilder(reg)
	parent := ecsquery.With[Position](tb)
	child := ecsquery.With[Position](tb)
	if err := ecsquery.RelatedTo[ChildOf](tb, child, parent); err != nil {
		log.Fatalf("build plan: %v", err)
	}
	plan, err := tb.Build(child)
	if err != nil {
		log.Fatalf("build plan: %v", err)
	}

	matcher := ecsmatch.NewMatcher(world)
	if trace {
		matcher = matcher.WithHandler(traceHandler)
	}

	var mainEntities []ecs.Entity
	iterateEntities(world, func(e ecs.Entity) { mainEntities = append(mainEntities, e) })

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment([]tw.Align{tw.AlignNone, tw.AlignNone}),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"parent", "child"})
	found := 0
	for _, e := range mainEntities {
		tuples, _ := matcher.Execute(plan, e)
		for _, t := range tuples {
			table.Append([]string{t[parent].String(), t[child].String()})
			found++
		}
	}
	table.Render()
	fmt.Printf("\n%d parent/child tuples\n", found)
}

func traceHandler(ev annotations.Event) {
	var name string
	switch ev.Name {
	case annotations.PruneStale, annotations.PruneMismatch, annotations.PruneConflict, annotations.PruneMissing:
		name = color.YellowString(ev.Name)
	case annotations.TupleEmitted:
		name = color.GreenString(ev.Name)
	default:
		name = color.CyanString(ev.Name)
	}
	fmt.Fprintf(os.Stderr, "[%s] %v (%s)\n", name, ev.Data, ev.Latency)
}

func spawnMemory(w *worldstore.World) {
	root := w.Spawn(&Position{X: 0, Y: 0})
	w.Spawn(&Position{X: 1, Y: 1}, &ChildOf{Parent: root})
	w.Spawn(&Position{X: 2, Y: 2}, &ChildOf{Parent: root})
	leaf := w.Spawn(&Position{X: 1, Y: 1}, &ChildOf{Parent: root})
	w.Spawn(&Position{X: 3, Y: 3}, &ChildOf{Parent: leaf})
}

func mustSpawnBadger(w *worldstore.BadgerWorld) {
	root, err := w.Spawn(&Position{X: 0, Y: 0})
	if err != nil {
		log.Fatalf("spawn: %v", err)
	}
	if _, err := w.Spawn(&Position{X: 1, Y: 1}, &ChildOf{Parent: root}); err != nil {
		log.Fatalf("spawn: %v", err)
	}
	if _, err := w.Spawn(&Position{X: 2, Y: 2}, &ChildOf{Parent: root}); err != nil {
		log.Fatalf("spawn: %v", err)
	}
}

// iterateEntities walks every entity the world currently knows about.
// ecsmatch.World exposes location lookup by entity but no enumeration, so
// this switches on the concrete reference world types and uses their
// ForEach; this is test/demo plumbing only.
func iterateEntities(world ecsmatch.World, fn func(ecs.Entity)) {
	switch w := world.(type) {
	case *worldstore.World:
		w.ForEach(fn)
	case *worldstore.BadgerWorld:
		w.ForEach(fn)
	}
}

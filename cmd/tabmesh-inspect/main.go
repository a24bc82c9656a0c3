// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

// tabmesh-inspect is an offline debugging tool for tabmesh entity
// stores. It opens a store file directly — never run it against a
// store a live engine has open — and can list the stored entities,
// print one record in CBOR diagnostic notation, and move whole stores
// around as compressed snapshots.
//
// Usage:
//
//	tabmesh-inspect dump --store private.db
//	tabmesh-inspect diag --store private.db --key <guid>
//	tabmesh-inspect export --store private.db --out backup.snap
//	tabmesh-inspect import --store restored.db --in backup.snap
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/tabmesh/tabmesh/lib/codec"
	"github.com/tabmesh/tabmesh/lib/schema"
	"github.com/tabmesh/tabmesh/lib/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var storePath string
	var key string
	var outPath string
	var inPath string

	flagSet := pflag.NewFlagSet("tabmesh-inspect", pflag.ContinueOnError)
	flagSet.StringVar(&storePath, "store", "", "path to the entity store database")
	flagSet.StringVar(&key, "key", "", "storage key (entity GUID) for diag")
	flagSet.StringVar(&outPath, "out", "", "snapshot file to write for export")
	flagSet.StringVar(&inPath, "in", "", "snapshot file to read for import")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	args := flagSet.Args()
	if len(args) != 1 {
		printHelp(flagSet)
		return fmt.Errorf("expected exactly one command, got %d", len(args))
	}
	if storePath == "" {
		return fmt.Errorf("--store is required")
	}

	s, err := store.Open(store.Config{Path: storePath})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	switch args[0] {
	case "dump":
		return dump(ctx, s)
	case "diag":
		if key == "" {
			return fmt.Errorf("diag requires --key")
		}
		return diag(ctx, s, key)
	case "export":
		if outPath == "" {
			return fmt.Errorf("export requires --out")
		}
		return export(ctx, s, outPath)
	case "import":
		if inPath == "" {
			return fmt.Errorf("import requires --in")
		}
		return runImport(ctx, s, inPath)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Println("tabmesh-inspect — offline entity store inspection")
	fmt.Println()
	fmt.Println("Commands: dump, diag, export, import")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println(flagSet.FlagUsages())
}

// dumpedRecord is the YAML shape of one stored entity in dump output.
type dumpedRecord struct {
	StorageKey    string `yaml:"storage_key"`
	Collaboration string `yaml:"collaboration,omitempty"`
	Kind          string `yaml:"kind"`
	Title         string `yaml:"title,omitempty"`
	URL           string `yaml:"url,omitempty"`
	OwningGroup   string `yaml:"owning_group,omitempty"`
	UpdateTime    string `yaml:"update_time"`
	LastUpdater   string `yaml:"last_updater,omitempty"`
	Error         string `yaml:"error,omitempty"`
}

func dump(ctx context.Context, s *store.Store) error {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}
	dumped := make([]dumpedRecord, 0, len(records))
	for _, record := range records {
		item := dumpedRecord{
			StorageKey:    record.StorageKey,
			Collaboration: record.Collaboration.String(),
		}
		entity, err := schema.Decode(record.Data)
		if err != nil {
			item.Kind = "undecodable"
			item.Error = err.Error()
			dumped = append(dumped, item)
			continue
		}
		item.UpdateTime = schema.MicrosToTime(entity.UpdateTimeUS).Format("2006-01-02T15:04:05.000000Z")
		item.LastUpdater = entity.LastUpdater.String()
		switch {
		case entity.IsGroup():
			item.Kind = "group"
			item.Title = entity.Group.Title
		case entity.IsTab():
			item.Kind = "tab"
			item.Title = entity.Tab.Title
			item.URL = entity.Tab.URL
			item.OwningGroup = entity.Tab.OwningGroupGUID
		default:
			item.Kind = "empty"
		}
		dumped = append(dumped, item)
	}
	out, err := yaml.Marshal(dumped)
	if err != nil {
		return fmt.Errorf("rendering dump: %w", err)
	}
	fmt.Printf("# %d records\n%s", len(dumped), out)
	return nil
}

func diag(ctx context.Context, s *store.Store, key string) error {
	record, found, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no record with storage key %q", key)
	}
	notation, err := codec.Diagnose(record.Data)
	if err != nil {
		return fmt.Errorf("diagnosing record %q: %w", key, err)
	}
	fmt.Println(notation)
	return nil
}

func export(ctx context.Context, s *store.Store, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	count, err := s.ExportSnapshot(ctx, f)
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("exported %d records to %s\n", count, outPath)
	return nil
}

func runImport(ctx context.Context, s *store.Store, inPath string) error {
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()
	count, err := s.ImportSnapshot(ctx, f)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d records into the store\n", count)
	return nil
}

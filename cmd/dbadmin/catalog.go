package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [data-file]",
	Short: "Dump every database, table, and index registered in the catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		d, _, cat, err := openCatalog(path)
		if err != nil {
			return err
		}
		defer d.Close()

		dbNames, err := cat.ShowDatabases()
		if err != nil {
			return err
		}
		if len(dbNames) == 0 {
			fmt.Println("(no databases)")
			return nil
		}

		for _, dbName := range dbNames {
			fmt.Printf("database %s\n", dbName)
			db, err := cat.UseDatabase(dbName)
			if err != nil {
				return err
			}
			tables, err := db.ShowTables()
			if err != nil {
				return err
			}
			for _, tableName := range tables {
				s, err := db.Desc(tableName)
				if err != nil {
					return err
				}
				fmt.Printf("  table %s (%d columns)\n", tableName, len(s.Columns))
				for _, c := range s.Columns {
					fmt.Printf("    %-20s %s\n", c.Name, c.Type)
				}
				indexes, err := db.FindIndexesByTable(tableName)
				if err != nil {
					return err
				}
				for _, idx := range indexes {
					kind := "index"
					switch {
					case idx.Primary:
						kind = "primary key"
					case idx.Unique:
						kind = "unique"
					case idx.Foreign:
						kind = "foreign key"
					}
					fmt.Printf("    %s %s on (%v)\n", kind, idx.Name, idx.Columns)
				}
			}
		}
		return nil
	},
}

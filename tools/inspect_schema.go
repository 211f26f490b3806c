package main

import (
	"fmt"
	"log"

	"github.com/designsafe-ci/portal-data/internal/database"
)

// Prints the tables gorm creates for the portal models.
func main() {
	db, err := database.OpenInMemory()
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)

	var tables []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' ORDER BY name").Scan(&tables)

	for _, table := range tables {
		fmt.Printf("\n=== Table: %s ===\n", table)
		var schema string
		db.Raw("SELECT sql FROM sqlite_master WHERE name = ?", table).Scan(&schema)
		fmt.Println(schema)

		var indexes []string
		db.Raw("SELECT sql FROM sqlite_master WHERE type='index' AND tbl_name = ? AND sql IS NOT NULL", table).Scan(&indexes)
		for _, idx := range indexes {
			fmt.Println(idx)
		}
	}
}

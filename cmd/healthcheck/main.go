// main.go
//
// Data, notification and Box services for the DesignSafe-CI portal
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of portal-data.
// portal-data is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// portal-data is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with portal-data.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/designsafe-ci/portal-data/internal/config"
	"github.com/designsafe-ci/portal-data/internal/database"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/search"
	"github.com/designsafe-ci/portal-data/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer database.Close(db)

	backend, err := search.NewBackend(cfg.Elastic, log)
	if err != nil {
		log.Fatal("failed to create search client", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result := services.HealthCheck(ctx, cfg, db, backend, log)

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal("failed to marshal health check result", "error", err)
	}
	fmt.Println(string(output))

	if result.Status != "healthy" {
		cancel()
		database.Close(db)
		os.Exit(1)
	}
}

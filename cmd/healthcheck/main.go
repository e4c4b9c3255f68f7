// main.go
//
// Records management and archival governance data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of recordsdb.
// recordsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// recordsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with recordsdb.
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
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/localnerve/recordsdb/internal/changefeed"
	"github.com/localnerve/recordsdb/internal/config"
	"github.com/localnerve/recordsdb/internal/database"
	"github.com/localnerve/recordsdb/internal/logging"
	"github.com/localnerve/recordsdb/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New("warn", cfg.LogFormat, "recordsdb-healthcheck")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to database (app pool)
	appDB, err := database.Connect(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(appDB)

	// An embedded or local feed lives inside the server process and cannot
	// be probed from here.
	var feed changefeed.Feed
	if cfg.NATSURL != "" {
		nf, err := changefeed.ConnectNATS(cfg.NATSURL, logger)
		if err != nil {
			logger.Warn("nats connect failed", zap.Error(err))
		} else {
			defer nf.Close()
			feed = nf
		}
	}

	// Perform health check
	result := services.HealthCheck(ctx, cfg, appDB, feed, logger)

	// Output result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal health check result: %v", err)
	}

	fmt.Println(string(output))

	// Exit with appropriate code
	if !result.Healthy() {
		os.Exit(1)
	}
	os.Exit(0)
}

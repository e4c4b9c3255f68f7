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
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/localnerve/recordsdb/internal/devstack"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var outFilename string
	flag.StringVar(&outFilename, "o", "", "write the stack's connection variables to this .env file")
	flag.Parse()

	usage := `
Run the recordsdb dependencies (database, NATS, optionally Authorizer and a
recordsdb image) in containers with the environment variables from the .env file.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH] [-o OUT_ENV_FILE]

ENV_FILE_PATH: path to the .env file
OUT_ENV_FILE: where to write DB_HOST, DB_PORT, NATS_URL and the rest for a local server

example
  testcontainers -f /path/to/something/.env -o .env.stack
  ENV_FILE=.env.stack go run ./cmd/server
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	opts := devstack.FromEnv()
	opts.Logf = log.Printf

	stack, err := devstack.Start(ctx, opts)
	if err != nil {
		log.Fatalf("Failed to create test containers: %v\n", err)
	}

	env := stack.Env()
	if outFilename != "" {
		if err := godotenv.Write(env, outFilename); err != nil {
			log.Printf("Failed to write %s: %v\n", outFilename, err)
		} else {
			log.Printf("Wrote %s\n", outFilename)
		}
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Printf("%s=%s\n", k, env[k])
	}
	log.Printf("recordsdb testcontainers started, press Ctrl+C to stop\n")

	<-ctx.Done()
	log.Printf("\nReceived signal, terminating test containers...\n")
	if err := stack.Terminate(context.Background()); err != nil {
		log.Printf("Terminate: %v\n", err)
		os.Exit(1)
	}
}

// common.go
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

package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/recordsdb/internal/types"
)

// parseList extracts the values of a query parameter, supporting both
// repeated keys and comma-separated values. Duplicates are dropped and the
// first-seen order is kept.
func parseList(c *fiber.Ctx, name string) []string {
	seen := make(map[string]struct{})
	var out []string

	args := c.Context().QueryArgs()
	for _, raw := range args.PeekMulti(name) {
		for _, v := range strings.Split(string(raw), ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// decodeObject reads a JSON object body. An empty body is a validation
// error.
func decodeObject(c *fiber.Ctx) (map[string]any, error) {
	body := c.Body()
	if len(body) == 0 {
		return nil, types.Validation("body", "is required")
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: body %v", types.ErrValidation, err)
	}
	if out == nil {
		return nil, types.Validation("body", "must be an object")
	}
	return out, nil
}

// decodeRecord reads a JSON body into rec.
func decodeRecord[T any](c *fiber.Ctx, rec *T) error {
	if len(c.Body()) == 0 {
		return types.Validation("body", "is required")
	}
	if err := json.Unmarshal(c.Body(), rec); err != nil {
		return fmt.Errorf("%w: body %v", types.ErrValidation, err)
	}
	return nil
}

// today returns the server's current date as YYYY-MM-DD, or the "today"
// query parameter when the caller supplies a valid one.
func today(c *fiber.Ctx) (string, error) {
	if v := c.Query("today"); v != "" {
		if _, err := time.Parse(time.DateOnly, v); err != nil {
			return "", types.Validation("today", "must be YYYY-MM-DD")
		}
		return v, nil
	}
	return time.Now().Format(time.DateOnly), nil
}

// writeEvent writes one server-sent event and flushes it.
func writeEvent(w *bufio.Writer, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}

// writeComment writes an SSE comment line, used as a heartbeat.
func writeComment(w *bufio.Writer, text string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", text); err != nil {
		return err
	}
	return w.Flush()
}

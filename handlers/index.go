// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"net/http"
)

// PingResponse reports that the service is up.
type PingResponse struct {
	Ping      string `json:"ping"`
	Timestamp int64  `json:"timestamp"`
}

func indexGet(clock Clock) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		return writeJSON(w, PingResponse{
			Ping:      "OK",
			Timestamp: clock().Unix(),
		})
	}
}

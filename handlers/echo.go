// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/z5labs/apigate/errpage"

	"github.com/z5labs/sdk-go/try"
)

// EchoRequest is the body of an echo.
type EchoRequest struct {
	EchoMessage     json.RawMessage `json:"echoMessage"`
	OutputTimestamp bool            `json:"outputTimestamp"`
}

// EchoResponse repeats the message it was sent.
type EchoResponse struct {
	EchoMessage json.RawMessage `json:"echoMessage"`

	// Timestamp is only set when it was asked for.
	Timestamp *int64 `json:"timestamp,omitempty"`
}

func echoPost(clock Clock) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) (err error) {
		defer try.Close(&err, r.Body)

		var req EchoRequest
		err = json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			return errpage.Wrap(http.StatusBadRequest, err)
		}

		resp := EchoResponse{
			EchoMessage: req.EchoMessage,
		}
		if req.OutputTimestamp {
			ts := clock().Unix()
			resp.Timestamp = &ts
		}
		return writeJSON(w, resp)
	}
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package interrupt

import (
	"bytes"
	"context"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestRegister_CancelsContextWhenInterrupted(t *testing.T) {
	var out bytes.Buffer
	ctx := Register(context.Background(), &out)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("failed to send SIGINT: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled")
	}
	// the notice is written before the context is cancelled
	if !strings.Contains(out.String(), "interrupted") {
		t.Errorf("missing notice, got %q", out.String())
	}
}

func TestRegister_StopsListeningWhenParentIsDone(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := Register(parent, nil)
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled with its parent")
	}
}

func TestIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if IsCancelled(ctx) {
		t.Fatal("context was not cancelled but func returned true")
	}
	cancel()
	if !IsCancelled(ctx) {
		t.Fatalf("context was cancelled but func returned false")
	}
}

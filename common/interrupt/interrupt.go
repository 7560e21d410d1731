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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Fantom-foundation/Cellar/go/common"
)

// ErrCanceled is returned by long running operations stopped by a signal.
const ErrCanceled = common.ConstError("interrupted")

// IsCancelled returns true if the given context has been cancelled.
func IsCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Register returns a context that is cancelled on SIGTERM or SIGINT, so
// that bulk imports can stop between two writes and leave the store
// consistent. A notice is printed to out unless it is nil.
func Register(parent context.Context, out io.Writer) context.Context {
	ctx, cancel := context.WithCancel(parent)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		defer signal.Stop(c)
		select {
		case <-c:
			if out != nil {
				fmt.Fprintln(out, "interrupted, finishing the current write before shutting down")
			}
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"artrack/pkg/store"
)

const probeKey = "startup_probe"

// StateRoundTrip writes, reads back and deletes a marker value.
func StateRoundTrip(st store.StateStore) CheckFunc {
	return func(ctx context.Context) error {
		if err := st.SetState(ctx, probeKey, "ok"); err != nil {
			return fmt.Errorf("write failed: %w", err)
		}
		val, found := st.GetState(ctx, probeKey)
		if !found || val != "ok" {
			return errors.New("read back mismatch")
		}
		return st.DeleteState(ctx, probeKey)
	}
}

// FileReadable checks that path exists and is a readable regular file.
func FileReadable(path string) CheckFunc {
	return func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		return nil
	}
}

// AddressFree checks that the HTTP server can bind addr.
func AddressFree(addr string) CheckFunc {
	return func(ctx context.Context) error {
		var lc net.ListenConfig
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return ln.Close()
	}
}

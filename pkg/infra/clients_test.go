package infra_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/jfind/pkg/infra"
	"github.com/m-mizutani/jfind/pkg/repository/memory"
)

func TestNew(t *testing.T) {
	t.Run("create new clients without options", func(t *testing.T) {
		clients := infra.New()
		gt.V(t, clients.BigQuery()).Equal(nil)
		gt.V(t, clients.ScanRepository()).Equal(nil)
	})

	t.Run("WithScanRepository option sets repository", func(t *testing.T) {
		repo := memory.New()
		clients := infra.New(infra.WithScanRepository(repo))
		gt.V(t, clients.ScanRepository()).Equal(repo)
	})
}

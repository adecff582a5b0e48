package fx

import (
	"match-ledger/internal/api"
	"match-ledger/internal/config"
	"match-ledger/internal/server"
	"match-ledger/internal/service"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestModuleGraph(t *testing.T) {
	err := fx.ValidateApp(
		Module,
		fx.Invoke(func(*server.LedgerServer) {}),
	)
	require.NoError(t, err)
}

func TestProvideHintSource(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	src, err := ProvideHintSource(lc, &config.Config{HintSource: config.HintSourceStatic}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &service.StaticHints{}, src)

	src, err = ProvideHintSource(lc, &config.Config{HintSource: config.HintSourceHTTP, HintAPIURL: "http://directory.local"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &api.HintClient{}, src)
}

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
	"github.com/noah-isme/asset-desk-api/internal/repository"
	"github.com/noah-isme/asset-desk-api/internal/service"
	"github.com/noah-isme/asset-desk-api/pkg/upstream"
)

type overviewSource interface {
	Overview(ctx context.Context, claims *models.JWTClaims, query dto.OverviewQuery) (*dto.BorrowedAssetOverview, bool, error)
}

// Settings are the connection options resolved from flags and ASSETCTL_* env.
type Settings struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	JoinPolicy models.JoinPolicy
	GatewayURL string
}

// App holds what the commands talk to.
type App struct {
	Overview overviewSource
	Assets   assetLister
	Gateway  gatewayOverview
	Claims   *models.JWTClaims
}

// AppFactory builds an App once settings are known.
type AppFactory func(Settings) (*App, error)

// NewRootCmd creates the top-level "assetctl" command.
func NewRootCmd(factory AppFactory) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("assetctl")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "assetctl",
		Short:        "Inspect borrowed assets and asset requests",
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.String("base-url", "http://localhost:3000/api", "Asset service base URL (ASSETCTL_BASE_URL)")
	flags.String("token", "", "Bearer token (ASSETCTL_TOKEN)")
	flags.Duration("timeout", 10*time.Second, "Upstream request timeout")
	flags.String("join-policy", string(models.JoinLastWins), "last-wins or collect-all")
	flags.String("gateway-url", "", "Gateway API base URL for verify (ASSETCTL_GATEWAY_URL)")
	for _, name := range []string{"base-url", "token", "timeout", "join-policy", "gateway-url"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	settings := func() Settings {
		return Settings{
			BaseURL:    v.GetString("base-url"),
			Token:      v.GetString("token"),
			Timeout:    v.GetDuration("timeout"),
			JoinPolicy: models.JoinPolicy(v.GetString("join-policy")),
			GatewayURL: v.GetString("gateway-url"),
		}
	}

	root.AddCommand(
		newStatusesCmd(),
		newOverviewCmd(factory, settings),
		newVerifyCmd(factory, settings),
	)
	return root
}

// DefaultFactory wires the upstream client and the overview service the same
// way the gateway does, minus the cache.
func DefaultFactory(s Settings) (*App, error) {
	if strings.TrimSpace(s.Token) == "" {
		return nil, fmt.Errorf("a token is required: pass --token or set ASSETCTL_TOKEN")
	}
	claims, err := service.NewAuthService("", zap.NewNop()).ValidateToken(s.Token)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	client, err := upstream.NewClient(upstream.Options{
		BaseURL:     s.BaseURL,
		Timeout:     s.Timeout,
		Credentials: upstream.StaticToken(s.Token),
	})
	if err != nil {
		return nil, err
	}
	assets := repository.NewBorrowedAssetRepository(client)
	loader := service.NewReadModelService(assets, repository.NewAssetRequestRepository(client), nil, 0, nil)
	overview := service.NewAssetOverviewService(loader, nil, nil, nil, service.AssetOverviewConfig{JoinPolicy: s.JoinPolicy}, nil)

	app := &App{Overview: overview, Assets: assets, Claims: claims}
	if strings.TrimSpace(s.GatewayURL) != "" {
		gateway, err := NewGatewayClient(s.GatewayURL, s.Token, s.Timeout)
		if err != nil {
			return nil, err
		}
		app.Gateway = gateway
	}
	return app, nil
}

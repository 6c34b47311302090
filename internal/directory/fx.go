package directory

import (
	"github.com/smallbiznis/loyara/internal/directory/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("directory",
	fx.Provide(
		NewClient,
		func(c *Client) domain.Directory { return c },
		func(c *Client) domain.OrderSource { return c },
	),
)

package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/convoyapp/convoy/internal/adapters/ws"
	"github.com/convoyapp/convoy/internal/app"
	"github.com/convoyapp/convoy/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, hub *app.Hub) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ConvoySessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Convoy Relay Server")
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"members": hub.Presence().Len(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	ctl := ws.NewController(hub, cfg.ReadLimit, cfg.PingPeriod)
	api.GET("/ws", func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})

	api.GET("/users/search", func(c *gin.Context) {
		q := strings.ToLower(c.Query("q"))
		type hit struct {
			Name string `json:"name"`
			Room string `json:"room"`
		}
		hits := []hit{}
		for _, id := range hub.Presence().All() {
			if q == "" || strings.Contains(strings.ToLower(id.Name), q) {
				hits = append(hits, hit{Name: id.Name, Room: string(id.Room)})
			}
		}
		c.JSON(http.StatusOK, gin.H{"users": hits})
	})

	return r
}

package gorouter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-emailbuilder/components/builder"
	"github.com/goliatone/go-emailbuilder/components/builder/commands"
	"github.com/goliatone/go-emailbuilder/components/builder/httpapi"
	"github.com/goliatone/go-emailbuilder/components/builder/queries"
)

// Config wires go-router with the builder controller, command API and hooks.
type Config[T any] struct {
	Router     router.Router[T]
	Controller *builder.Controller
	API        httpapi.Executor
	Broadcast  *builder.BroadcastHook
	BasePath   string
	Routes     RouteConfig
}

// RouteConfig customizes the relative paths used for builder endpoints.
type RouteConfig struct {
	Preview     string
	PreviewText string
	Document    string
	Catalog     string
	Blocks      string
	BlockID     string
	Move        string
	Layout      string
	Save        string
	WebSocket   string
}

// routeRegistrar is the subset of router.Router the builder mounts on.
type routeRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo
}

// Register mounts builder routes (preview, JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil || cfg.Controller.Session() == nil {
		return errors.New("gorouter: controller with session is required")
	}
	base := cfg.BasePath
	if base == "" {
		base = "/builder"
	}
	mount(cfg.Router.Group(base), cfg.Controller, cfg.API, cfg.Broadcast, defaultRouteConfig(cfg.Routes))
	return nil
}

func mount(r routeRegistrar, controller *builder.Controller, api httpapi.Executor, hook *builder.BroadcastHook, routes RouteConfig) {
	session := controller.Session()
	document := queries.NewDocumentQuery(session)
	preview := queries.NewPreviewQuery(controller)
	catalog := queries.NewCatalogQuery(session.Catalog())

	r.Get(routes.Preview, previewHandler(preview, builder.FormatHTML))
	r.Get(routes.PreviewText, previewHandler(preview, builder.FormatText))

	r.Get(routes.Document, router.WrapHandler(func(ctx router.Context) error {
		doc, err := document.Query(ctx.Context(), queries.DocumentInput{})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, doc)
	}))

	r.Get(routes.Catalog, router.WrapHandler(func(ctx router.Context) error {
		entries, err := catalog.Query(ctx.Context(), queries.CatalogInput{
			Locale:   inferLocale(ctx),
			Category: strings.TrimSpace(ctx.Query("category")),
		})
		if err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusOK, map[string]any{"block_types": entries})
	}))

	if api != nil {
		registerAPI(r, api, routes)
	}
	if hook != nil {
		registerWebSocket(r, hook, routes.WebSocket)
	}
}

func previewHandler(preview *queries.PreviewQuery, format string) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		out, err := preview.Query(ctx.Context(), queries.PreviewInput{Format: format})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		ctx.SetHeader("Content-Type", out.ContentType)
		return ctx.Send([]byte(out.Body))
	})
}

func registerAPI(r routeRegistrar, api httpapi.Executor, routes RouteConfig) {
	r.Post(routes.Blocks, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.InsertBlockInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		var block builder.Block
		payload.Output = &block
		if err := api.Insert(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusCreated, block)
	}))

	r.Post(routes.BlockID, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("block id is required"))
		}
		var payload commands.UpdateBlockInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.BlockID = id
		var block builder.Block
		payload.Output = &block
		if err := api.Update(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, block)
	}))

	r.Post(routes.Move, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("block id is required"))
		}
		var payload commands.MoveBlockInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.BlockID = id
		var block builder.Block
		payload.Output = &block
		if err := api.Move(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, block)
	}))

	r.Delete(routes.BlockID, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("block id is required"))
		}
		if err := api.Remove(ctx.Context(), commands.RemoveBlockInput{BlockID: id}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "removed"})
	}))

	r.Post(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.UpdateLayoutInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		var layout builder.Layout
		payload.Output = &layout
		if err := api.Layout(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, layout)
	}))

	r.Post(routes.Save, router.WrapHandler(func(ctx router.Context) error {
		if err := api.Save(ctx.Context(), commands.SaveLayoutInput{}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "saved"})
	}))
}

func registerWebSocket(r routeRegistrar, hook *builder.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return parseAcceptLanguage(ctx.Header("Accept-Language"))
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Preview == "" {
		routes.Preview = "/preview"
	}
	if routes.PreviewText == "" {
		routes.PreviewText = "/preview.txt"
	}
	if routes.Document == "" {
		routes.Document = "/_layout"
	}
	if routes.Catalog == "" {
		routes.Catalog = "/catalog"
	}
	if routes.Blocks == "" {
		routes.Blocks = "/blocks"
	}
	if routes.BlockID == "" {
		routes.BlockID = "/blocks/:id"
	}
	if routes.Move == "" {
		routes.Move = "/blocks/:id/move"
	}
	if routes.Layout == "" {
		routes.Layout = "/layout"
	}
	if routes.Save == "" {
		routes.Save = "/save"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}

// Command serve runs the statement conversion HTTP API.
package main

import (
	"flag"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/insightdelivered/statement-reconciler/internal/api"
	"github.com/insightdelivered/statement-reconciler/internal/config"
	"github.com/insightdelivered/statement-reconciler/internal/logger"
)

func main() {
	portFlag := flag.Int("port", 8080, "Listen port")
	configFlag := flag.String("config", "", "Path to custom.yaml (accounts, cardholders, comment rules)")
	flag.Parse()

	log := logger.New()

	cfg := config.DefaultCustom()
	if *configFlag != "" {
		loaded, err := config.LoadCustom(*configFlag)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configFlag).Msg("loading config")
		}
		cfg = loaded
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 << 20, // statement PDFs run a few MB at most
	})
	app.Use(recover.New())
	app.Use(cors.New())

	api.NewHandler(cfg, log).Register(app)

	addr := fmt.Sprintf(":%d", *portFlag)
	log.Info().Str("addr", addr).Msg("listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

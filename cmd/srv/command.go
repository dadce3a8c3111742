package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	s.app = cli.NewApp()
	s.app.Action = cli.ShowAppHelp
	s.app.Name = "Geoplet"
	s.app.Usage = "Warplet to Geoplet mint backend"
	s.app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path of the TOML config file",
			EnvVars: []string{"CONFIG_PATH"},
		},
	}
	s.app.Before = s.loadConfig
	s.app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Serves the mint, gallery, generation and admin apis.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate the database schema",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "version", Usage: "Run only this migration version"},
				&cli.BoolFlag{Name: "auto", Usage: "Create every table with its latest schema"},
			},
			Category:    "Database",
			Description: `Creates or updates the payment and unminted tables.`,
		},
		{
			Action:    s.startMint,
			Name:      "mint",
			Usage:     "Pay and mint a Geoplet with the client wallet",
			ArgsUsage: "<artwork.png>",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "fid", Usage: "Farcaster id to mint", Required: true},
			},
			Category:    "Client",
			Description: `Runs the whole payment to mint pipeline against a running api.`,
		},
		{
			Action: s.startGallery,
			Name:   "gallery",
			Usage:  "List minted Geoplets",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "size", Value: 20, Usage: "Page size"},
				&cli.IntFlag{Name: "pages", Value: 1, Usage: "Number of pages to load"},
			},
			Category:    "Client",
			Description: `Pages through the gallery of a running api.`,
		},
	}
}

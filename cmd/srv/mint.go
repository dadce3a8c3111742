package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/pkg/api/x402"
	"github.com/geoplet/backend/pkg/blockchain/eth"
	"github.com/geoplet/backend/pkg/mintflow"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMint(cctx *cli.Context) error {
	cfg := xcontext.Configs(s.ctx)
	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	if cctx.NArg() != 1 {
		return errors.New("expected the path of the artwork")
	}

	image, err := os.ReadFile(cctx.Args().First())
	if err != nil {
		return err
	}

	artifact := base64.StdEncoding.EncodeToString(image)
	if len(artifact) > cfg.Mint.MaxArtifactBytes {
		img, err := common.DecodeImage("", bytes.NewReader(image))
		if err != nil {
			return err
		}

		if artifact, err = common.CompressToBase64(img, cfg.Mint.MaxArtifactBytes); err != nil {
			return err
		}
	}

	wallet, err := eth.NewLocalWallet(cfg.Client.PrivateKey)
	if err != nil {
		return err
	}

	s.loadEthClient()
	payer := x402.NewPayer(wallet, big.NewInt(cfg.Eth.Chain.ChainID), cfg.Payment.Network)
	issuer := mintflow.NewHTTPIssuer(cfg.Client.ServerURL, payer)

	pipeline, err := mintflow.NewPipeline(cfg, s.ethClient, wallet, issuer)
	if err != nil {
		return err
	}

	pipeline.OnStateChange(func(state mintflow.State) {
		if state.Terminal() {
			xcontext.Logger(s.ctx).Infof("Mint finished: %s", state)
			return
		}
		xcontext.Logger(s.ctx).Infof("Mint state: %s", state)
	})

	result, err := pipeline.Mint(s.ctx, cctx.Int64("fid"), artifact)
	if err != nil {
		if errors.Is(err, mintflow.ErrInsufficientBalance) {
			return fmt.Errorf("%w, top up at %s", err, cfg.Mint.AcquireURL)
		}
		return err
	}

	switch result.State {
	case mintflow.StateAlreadyMinted:
		fmt.Printf("fid %d is already minted\n", cctx.Int64("fid"))
	default:
		fmt.Printf("minted fid %d in tx %s\n", cctx.Int64("fid"), result.TxHash.Hex())
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/backwardspy/satisfactory-sav-parser/config"
	"github.com/backwardspy/satisfactory-sav-parser/satisfactory"
	"github.com/backwardspy/satisfactory-sav-parser/utils"
)

type dump struct {
	Header satisfactory.Header
	Body   satisfactory.Body
}

func printHeader(w io.Writer, header satisfactory.Header) {
	fmt.Fprintf(w, "session:        %s\n", header.SessionName)
	fmt.Fprintf(w, "map:            %s\n", header.MapName)
	fmt.Fprintf(w, "versions:       header %d, save %d, build %d\n", header.Version, header.SaveVersion, header.BuildVersion)
	fmt.Fprintf(w, "played:         %ds\n", header.SecondsPlayed)
	fmt.Fprintf(w, "creative mode:  %t\n", header.IsCreativeModeEnabled)
}

func printChunks(w io.Writer, chunks []satisfactory.Chunk, digest uint64) {
	fmt.Fprintf(w, "chunks:         %d (%d kB compressed, %d kB uncompressed)\n",
		len(chunks),
		satisfactory.CompressedTotal(chunks)/1024,
		satisfactory.UncompressedTotal(chunks)/1024,
	)
	fmt.Fprintf(w, "body xxh64:     %s\n", formatDigest(digest))
}

func formatDigest(digest uint64) string {
	return fmt.Sprintf("%016x", digest)
}

func printBody(w io.Writer, body satisfactory.Body) {
	for _, level := range body.Levels() {
		actors := 0
		properties := 0
		for _, object := range level.Objects {
			switch o := object.(type) {
			case satisfactory.ActorObject:
				actors++
				properties += len(o.Properties)
			case satisfactory.ComponentObject:
				properties += len(o.Properties)
			}
		}
		fmt.Fprintf(w, "%s: %d objects (%d actors, %d components), %d properties\n",
			level, len(level.Objects), actors, len(level.Objects)-actors, properties)
	}
	fmt.Fprintf(w, "object references: %d\n", len(body.ObjectReferences))
}

// dumpDecompressed writes the whole body and then each chunk's slice of it.
func dumpDecompressed(cfg config.Config, folder string, chunks []satisfactory.Chunk, data []byte) error {
	_, err := utils.SaveToFile(cfg, folder, "body", "bin", data)
	if err != nil {
		return err
	}

	var offset int64
	for i, chunk := range chunks {
		end := offset + chunk.UncompressedSize
		_, err = utils.SaveToFile(cfg, folder, "chunk_"+strconv.Itoa(i), "bin", data[offset:end])
		if err != nil {
			return err
		}
		offset = end
	}
	return nil
}

func run(ctx context.Context, cfg config.Config, path string, w io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open save")
	}
	defer file.Close()

	save, err := satisfactory.ReadSaveData(ctx, file, cfg.Workers)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}

	digest := xxhash.Sum64(save.Data)
	printHeader(w, save.Header)
	printChunks(w, save.Chunks, digest)

	filename := filepath.Base(path)
	folder := filename[:len(filename)-len(filepath.Ext(filename))] + "_" + formatDigest(digest)

	err = dumpDecompressed(cfg, folder, save.Chunks, save.Data)
	if err != nil {
		return err
	}

	err = save.DecodeBody(
		satisfactory.WithLogger(log.Logger),
		satisfactory.WithMaxDepth(cfg.MaxDepth),
		satisfactory.WithStrictSizes(cfg.StrictSizes),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to decode body of %s", path)
	}
	printBody(w, save.Body)

	jsonPath, err := utils.SaveToFile(cfg, folder, "save", "json", dump{Header: save.Header, Body: save.Body})
	if err != nil {
		return err
	}
	if jsonPath != "" {
		log.Debug().Str("path", jsonPath).Msg("wrote json dump")
	}

	return nil
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <save.sav>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	err = run(context.Background(), cfg, os.Args[1], os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse save")
	}
}

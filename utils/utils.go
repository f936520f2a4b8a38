package utils

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/backwardspy/satisfactory-sav-parser/config"
)

func createIfNotExist(name string) error {
	err := os.MkdirAll(name, os.ModePerm)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", name)
	}
	return nil
}

func saveJSON(root string, foldername string, name string, data []byte) (string, error) {
	combinedPath := filepath.Join(root, "json", foldername)
	err := createIfNotExist(combinedPath)
	if err != nil {
		return "", err
	}
	target := filepath.Join(combinedPath, name+".json")
	return target, os.WriteFile(target, data, 0644)
}

func saveBinary(root string, foldername string, name string, data []byte) (string, error) {
	combinedPath := filepath.Join(root, "binary", foldername)
	err := createIfNotExist(combinedPath)
	if err != nil {
		return "", err
	}
	target := filepath.Join(combinedPath, name+".bin")
	return target, os.WriteFile(target, data, 0644)
}

// SaveToFile writes a debug dump under cfg.OutputDir when the matching debug
// flag is on. dataType is "json" for any value or "bin" for a []byte. It
// returns the written path, or "" when the dump is disabled.
func SaveToFile(cfg config.Config, foldername string, name string, dataType string, data any) (string, error) {
	switch dataType {
	case "json":
		if !cfg.SaveJSON {
			return "", nil
		}
		jsonObject, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", errors.Wrapf(err, "failed to marshal %s", name)
		}
		return saveJSON(cfg.OutputDir, foldername, name, jsonObject)

	case "bin":
		if !cfg.SaveBinary && !cfg.SaveDecompressed {
			return "", nil
		}
		raw, ok := data.([]byte)
		if !ok {
			return "", errors.Errorf("binary dump %s needs []byte, got %T", name, data)
		}
		return saveBinary(cfg.OutputDir, foldername, name, raw)

	default:
		return "", errors.Errorf("unknown file dataType: %s", dataType)
	}
}

package main

import (
	"naivedb/buffer"
	"naivedb/catalog"
	"naivedb/disk"
	"naivedb/internal/config"
)

// openPool opens the data file named by path (or cfg.DataFile if path is
// empty) and wires up a buffer pool sized per cfg, mirroring how any future
// embedder would bring the storage core up.
func openPool(path string) (*disk.Manager, *buffer.Pool, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if path != "" {
		cfg.DataFile = path
	}

	d, err := disk.Open(cfg.DataFile)
	if err != nil {
		return nil, nil, err
	}
	pool := buffer.New(d, cfg.BufferPoolFrames)
	return d, pool, nil
}

func openCatalog(path string) (*disk.Manager, *buffer.Pool, *catalog.Catalog, error) {
	d, pool, err := openPool(path)
	if err != nil {
		return nil, nil, nil, err
	}
	cat, err := catalog.Open(pool)
	if err != nil {
		d.Close()
		return nil, nil, nil, err
	}
	return d, pool, cat, nil
}

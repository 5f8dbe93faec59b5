// Package photomosaic generates mosaic images: A target image is recreated
// from a library (= directory) of tile images.
//
// The target is resized s.t. it can be divided into a grid of equally sized
// cells, each library image is resized to the cell size. The library is
// partitioned into clusters with k-means, for each cell the best tile of the
// closest cluster is selected and the tiles are composed into the mosaic.
//
// Generator drives the whole pipeline and only re-runs the stages whose
// inputs changed. The package also ships an interactive shell (see
// CommandHandler) used by the executable in cmd/mosaic.
package photomosaic

// Copyright 2018 Fabian Wenzelmann
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package photomosaic

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DirLister returns the absolute paths of all image files in a directory.
type DirLister func(root string, filter SupportedImageFunc) ([]string, error)

// ListImages is a DirLister that returns all regular files directly in root
// (not recursive) whose extension is accepted by filter. If filter is nil
// JPGAndPNG is used.
func ListImages(root string, filter SupportedImageFunc) ([]string, error) {
	root, absErr := filepath.Abs(root)
	if absErr != nil {
		return nil, absErr
	}
	if filter == nil {
		filter = JPGAndPNG
	}
	files, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(files))
	for _, file := range files {
		if file.Type().IsRegular() && filter(filepath.Ext(file.Name())) {
			res = append(res, filepath.Join(root, file.Name()))
		}
	}
	return res, nil
}

// ListImagesRecursive works as ListImages but walks all sub-directories.
func ListImagesRecursive(root string, filter SupportedImageFunc) ([]string, error) {
	root, absErr := filepath.Abs(root)
	if absErr != nil {
		return nil, absErr
	}
	if filter == nil {
		filter = JPGAndPNG
	}
	res := make([]string, 0)
	walkFunc := func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.Type().IsRegular() && filter(filepath.Ext(path)):
			res = append(res, path)
			return nil
		default:
			return nil
		}
	}
	if err := filepath.WalkDir(root, walkFunc); err != nil {
		return nil, err
	}
	return res, nil
}

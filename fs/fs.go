// Package appfs embeds the files shipped with the binaries.
package appfs

import "embed"

// FS holds the goose migrations and the sample reference data.
//
//go:embed migrations/*.sql seed/*.yaml
var FS embed.FS

const SeedFile = "seed/school.yaml"

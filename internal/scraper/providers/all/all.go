// Package all imports every provider adapter for side-effect registration.
//
// Import this package from your main to ensure all providers are registered:
//
//	import _ "github.com/nstojkov/betsnipe/internal/scraper/providers/all"
package all

import (
	_ "github.com/nstojkov/betsnipe/internal/scraper/providers/admiral"
	_ "github.com/nstojkov/betsnipe/internal/scraper/providers/maxbet"
	_ "github.com/nstojkov/betsnipe/internal/scraper/providers/merkur"
	_ "github.com/nstojkov/betsnipe/internal/scraper/providers/mozzart"
	_ "github.com/nstojkov/betsnipe/internal/scraper/providers/superbet"
	_ "github.com/nstojkov/betsnipe/internal/scraper/providers/topbet"
)

// Package generic implements strategies for HTML sites without a dedicated
// strategy. Novel sites are described by URL templates in the source
// selectors; manga sites are scraped with DOM-first chapter-link and image
// heuristics.
package generic

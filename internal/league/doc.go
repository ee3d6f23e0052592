// Package league derives ranked leaderboards from league membership,
// cash, and holdings priced at current quotes.
package league

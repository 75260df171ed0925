// Package extract turns stored run output into the scalar a campaign sweeps.
package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ja7ad/simcampaign/pkg/campaign"
)

// Throughput reads the aggregated throughput printed by wifi-multi-tos, e.g.
// "Aggregated throughput: 12.5 Mbit/s". The number is the second-to-last
// whitespace-separated token of stdout.
var Throughput campaign.Extractor = Field(2)

// Field returns an extractor parsing the fromEnd-th whitespace-separated
// token of stdout, counting from 1 at the last token.
func Field(fromEnd int) campaign.Extractor {
	if fromEnd < 1 {
		fromEnd = 1
	}
	return func(r campaign.Record) (float64, error) {
		fields := strings.Fields(r.Stdout)
		if len(fields) < fromEnd {
			return 0, &MalformedOutputError{
				Stdout: r.Stdout,
				Reason: fmt.Sprintf("expected at least %d tokens, got %d", fromEnd, len(fields)),
			}
		}
		tok := fields[len(fields)-fromEnd]
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, &MalformedOutputError{Stdout: r.Stdout, Token: tok, Reason: "not a number"}
		}
		return v, nil
	}
}

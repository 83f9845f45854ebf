package report

import (
	"fmt"
	"io"
	"photovote/voting"
	"time"

	"github.com/olekukonko/tablewriter"
)

// PrintLeaderboard writes the ranked photos as a Markdown table
func PrintLeaderboard(writer io.Writer, photos []voting.PhotoVotes) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Rank", "Photo", "Uploader", "Votes", "Uploaded"})

	// Configure for Markdown table formatting
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAutoFormatHeaders(false)

	for i, p := range photos {
		uploader := ""
		if p.UploaderName != nil {
			uploader = *p.UploaderName
		}
		uploaded := ""
		if p.CreatedAt > 0 {
			uploaded = time.Unix(p.CreatedAt, 0).UTC().Format("2006-01-02 15:04")
		}
		table.Append([]string{
			fmt.Sprint(i + 1),
			p.ID,
			uploader,
			fmt.Sprint(p.VoteCount),
			uploaded,
		})
	}
	table.Render()
}

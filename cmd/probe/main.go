// Probe runs messages through the routing pipeline without touching any
// remote service and prints the decision per message. Useful for tuning
// thresholds against a labelled message list.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"beruang/classifier"
	"beruang/domain"
	"beruang/internal"
	"beruang/knowledge"
	"beruang/ood"
	"beruang/routing"
)

func main() {
	metadataPath := flag.String("model", "model/metadata.json", "Path to model metadata")
	threshold := flag.Int("ood-threshold", 2, "OOD reason count that escalates to remote")
	flag.Parse()

	logger := internal.LoggerFromString("error")

	meta, err := classifier.LoadMetadata(*metadataPath)
	if err != nil {
		log.Fatal("Error while loading model metadata: ", err)
	}
	labels, err := meta.Labels()
	if err != nil {
		log.Fatal("Error in label map: ", err)
	}

	adapter := classifier.NewAdapter(logger)
	adapter.Load(
		classifier.NewHashingEmbedder(meta.FeatureSize, meta.Vocab()),
		classifier.NewLinearModel(meta.Weights, meta.Bias),
	)

	prefilter, err := routing.NewPrefilter()
	if err != nil {
		log.Fatal("Error while building pre-filter: ", err)
	}
	store, err := knowledge.NewStore(logger)
	if err != nil {
		log.Fatal("Error while loading knowledge base: ", err)
	}

	detector := ood.NewDetector(ood.Config{DecisionThreshold: *threshold})
	router := routing.NewRouter(logger, prefilter, adapter, detector, store, meta.Vocab(), labels)

	messages := flag.Args()
	if len(messages) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				messages = append(messages, line)
			}
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Message", "Route", "Intent", "Confidence", "Reasons"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, message := range messages {
		decision := router.Route(context.Background(), message)

		route := color.New(color.FgGreen).Render("LOCAL")
		if decision.Route == domain.RouteRemote {
			route = color.New(color.FgYellow).Render("REMOTE")
		}

		reasons := decision.Reason
		if decision.Verdict != nil && len(decision.Verdict.Reasons) > 0 {
			reasons = strings.Join(decision.Verdict.Reasons, "; ")
		}

		table.Append([]string{
			message,
			route,
			decision.Intent,
			fmt.Sprintf("%.1f%%", decision.Confidence*100),
			reasons,
		})
	}
	table.Render()
}

// Package medagent embeds the medical question router in a Go program.
//
// A Client opens the heart, cancer and diabetes datasets read-only and routes
// every question down exactly one path: a synthesized query over one dataset,
// or a web knowledge search. Either way the raw result is narrated by the
// language model into the final answer.
//
//	client, err := medagent.New(ctx,
//	    medagent.WithDatasetsDir("data/db"),
//	    medagent.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	    medagent.WithTavily(os.Getenv("TAVILY_API_KEY")),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	answer := client.Ask(ctx, "What is the average age of heart disease patients?")
//	fmt.Println(answer.Text)
//
// Ask never returns an error: failures surface as diagnostic answer text with
// Answer.Err set.
package medagent

package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/tablestream-io/tablestream/src/engine"
	"github.com/tablestream-io/tablestream/src/remote"
)

// Request is the event payload: the S3 location of a CSV table and the
// query to run against it. Adapted from the teacher's own
// LambdaFunctionURLRequest handler (which proxied an entire HTTP API) down
// to the one operation SPEC_FULL.md's remote-I/O component actually needs:
// load a table from S3, run one statement, return the result.
type Request struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	Delimiter string `json:"delimiter"`
	SQL       string `json:"sql"`
}

// Response carries the query result back as pretty-printed text, since a
// Lambda invocation response has no concept of a columnar batch.
type Response struct {
	Output string `json:"output"`
}

func HandleRequest(ctx context.Context, req Request) (Response, error) {
	delimiter := ','
	if req.Delimiter != "" {
		delimiter = rune(req.Delimiter[0])
	}

	df, err := remote.LoadFromS3(ctx, req.Bucket, req.Key, delimiter)
	if err != nil {
		return Response{}, err
	}

	ds, err := engine.Execute(req.SQL, df)
	if err != nil {
		return Response{}, err
	}

	return Response{Output: ds.PrettyPrint()}, nil
}

func main() {
	log.SetFlags(0)
	lambda.Start(HandleRequest)
}

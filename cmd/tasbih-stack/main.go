// Command tasbih-stack synthesizes the AWS deployment: the DynamoDB events
// table and the get-tally function reading from it.
//
// The function asset is expected at dist/get-tally, built with
//
//	GOOS=linux GOARCH=amd64 go build -o dist/get-tally/get-tally ./cmd/get-tally
package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

type TasbihStackProps struct {
	awscdk.StackProps
	Asset string
}

func NewTasbihStack(scope constructs.Construct, id string, props *TasbihStackProps) awscdk.Stack {
	stack := awscdk.NewStack(scope, &id, &props.StackProps)

	table := awsdynamodb.NewTable(stack, jsii.String("Events"), &awsdynamodb.TableProps{
		PartitionKey:  &awsdynamodb.Attribute{Name: jsii.String("pk"), Type: awsdynamodb.AttributeType_STRING},
		SortKey:       &awsdynamodb.Attribute{Name: jsii.String("sk"), Type: awsdynamodb.AttributeType_STRING},
		BillingMode:   awsdynamodb.BillingMode_PAY_PER_REQUEST,
		RemovalPolicy: awscdk.RemovalPolicy_RETAIN,
	})

	// TODO: route GET /tally/{user}/{counter} to the function once the
	// apigatewayv2 constructs leave alpha.
	getTally := awslambda.NewFunction(stack, jsii.String("GetTally"), &awslambda.FunctionProps{
		Runtime:    awslambda.Runtime_GO_1_X(),
		Handler:    jsii.String("get-tally"),
		Code:       awslambda.Code_FromAsset(jsii.String(props.Asset), nil),
		MemorySize: jsii.Number(256),
		Tracing:    awslambda.Tracing_ACTIVE,
		Environment: &map[string]*string{
			"DYNAMODB_EVENTS_TABLE_NAME": table.TableName(),
			"TASBIH_TRACING":             jsii.String("none"),
		},
	})
	table.GrantReadData(getTally)

	awscdk.NewCfnOutput(stack, jsii.String("EventsTable"), &awscdk.CfnOutputProps{Value: table.TableName()})
	awscdk.NewCfnOutput(stack, jsii.String("GetTallyFunction"), &awscdk.CfnOutputProps{Value: getTally.FunctionName()})

	return stack
}

func main() {
	app := awscdk.NewApp(nil)

	NewTasbihStack(app, "Tasbih", &TasbihStackProps{
		Asset: "dist/get-tally",
	})

	app.Synth(nil)
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quickops/quicksuite-admin/internal/config"
	"github.com/quickops/quicksuite-admin/internal/domain"
	"github.com/quickops/quicksuite-admin/internal/repository/awsconn"
	"github.com/quickops/quicksuite-admin/internal/repository/identitycenter"
	"github.com/quickops/quicksuite-admin/internal/repository/quicksuite"
	"github.com/quickops/quicksuite-admin/internal/service"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	lambda.Start(cfn.LambdaWrap(handle))
}

func handle(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	cfg, err := config.Load()
	if err != nil {
		return physicalID(event), nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	awsCfg, err := awsconn.Load(ctx, cfg.AWS)
	if err != nil {
		return physicalID(event), nil, err
	}

	accountID := cfg.AccountID
	if accountID == "" {
		accountID, err = awsconn.ResolveAccountID(ctx, awsCfg)
		if err != nil {
			return physicalID(event), nil, err
		}
	}

	resolver := identitycenter.NewInstanceResolver(awsCfg)

	identityStoreID := cfg.IdentityStoreID
	if identityStoreID == "" {
		instance, err := resolver.ResolveInstance(ctx, cfg.InstanceARN)
		if err != nil {
			return physicalID(event), nil, err
		}
		identityStoreID = instance.IdentityStoreID
	}

	directory := identitycenter.NewDirectory(awsCfg, identityStoreID)
	controlPlane := quicksuite.NewControlPlane(awsCfg, accountID)

	svc := service.NewProvisionService(
		controlPlane,
		directory,
		resolver,
		domain.DefaultRoleMapping(),
		log.Logger,
		service.ProvisionConfig{
			Namespace:    cfg.Namespace,
			PollInterval: cfg.PollInterval,
			Timeout:      cfg.ProvisionTimeout,
		},
	)

	req, err := requestFromEvent(event)
	if err != nil {
		return physicalID(event), nil, err
	}

	outputs, err := svc.Handle(ctx, req)
	if err != nil {
		return physicalID(event), nil, err
	}

	data := make(map[string]interface{})
	if outputs != nil {
		for k, v := range outputs.OutputsMap() {
			data[k] = v
		}
	}
	return physicalID(event), data, nil
}

// requestFromEvent maps an orchestrator event onto a lifecycle request.
func requestFromEvent(event cfn.Event) (domain.LifecycleRequest, error) {
	var op domain.LifecycleOperation
	switch event.RequestType {
	case cfn.RequestCreate:
		op = domain.OperationCreate
	case cfn.RequestUpdate:
		op = domain.OperationUpdate
	case cfn.RequestDelete:
		op = domain.OperationDelete
	default:
		return domain.LifecycleRequest{}, fmt.Errorf("%w: unknown request type %q", domain.ErrInvalidInput, event.RequestType)
	}

	desired := domain.DesiredWorkspaceConfig{
		InstanceIdentifier: propString(event.ResourceProperties, "IdentityCenterInstanceArn"),
		AccountDisplayName: propString(event.ResourceProperties, "AccountName"),
		AdminEmail:         propString(event.ResourceProperties, "AdminEmail"),
		AdminGroupName:     propString(event.ResourceProperties, "AdminGroupName"),
	}
	if desired.AdminGroupName == "" {
		desired.AdminGroupName = domain.GroupAdmin
	}

	// Catch account name changes before any remote call is made.
	if op == domain.OperationUpdate {
		oldName := propString(event.OldResourceProperties, "AccountName")
		if oldName != "" && oldName != desired.AccountDisplayName {
			return domain.LifecycleRequest{}, fmt.Errorf("%w: account display name (%q -> %q)",
				domain.ErrImmutableField, oldName, desired.AccountDisplayName)
		}
	}

	return domain.LifecycleRequest{
		Operation: op,
		RequestID: event.RequestID,
		Desired:   desired,
	}, nil
}

// physicalID is stable across Create, Update, and Delete of the same
// resource so the orchestrator never schedules a replacement delete.
func physicalID(event cfn.Event) string {
	if event.PhysicalResourceID != "" {
		return event.PhysicalResourceID
	}
	if name := propString(event.ResourceProperties, "AccountName"); name != "" {
		return name + "-workspace"
	}
	return event.LogicalResourceID
}

func propString(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

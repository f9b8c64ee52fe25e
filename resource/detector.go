// Copyright 2026 The Botanu Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resource detects execution environment attributes for cost
// attribution: Kubernetes, cloud provider, serverless runtime, host,
// container, and process.
package resource

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
)

// Detect gathers environment attributes from the built-in OTel
// detectors plus the Kubernetes, cloud, and serverless detectors
// below. The environment does not change at runtime, so callers
// typically run this once at startup.
func Detect(ctx context.Context) (*sdkresource.Resource, error) {
	return sdkresource.New(ctx,
		sdkresource.WithHost(),
		sdkresource.WithOS(),
		sdkresource.WithProcessPID(),
		sdkresource.WithProcessRuntimeName(),
		sdkresource.WithProcessRuntimeVersion(),
		sdkresource.WithContainerID(),
		sdkresource.WithDetectors(
			Kubernetes{},
			Cloud{},
			Serverless{},
		),
	)
}

// envAttrs collects attributes for the environment variables that are
// set and non-empty.
func envAttrs(mapping map[string]string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for envVar, attrName := range mapping {
		if value := os.Getenv(envVar); value != "" {
			attrs = append(attrs, attribute.String(attrName, value))
		}
	}
	return attrs
}

func hasAttr(attrs []attribute.KeyValue, key attribute.Key) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

func anyEnvSet(vars ...string) bool {
	for _, v := range vars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// Kubernetes detects k8s.* attributes from the downward-API style
// environment variables and the service account namespace file.
type Kubernetes struct{}

var k8sEnvMapping = map[string]string{
	"K8S_POD_NAME":         "k8s.pod.name",
	"K8S_POD_UID":          "k8s.pod.uid",
	"K8S_NAMESPACE":        "k8s.namespace.name",
	"K8S_NODE_NAME":        "k8s.node.name",
	"K8S_CLUSTER_NAME":     "k8s.cluster.name",
	"K8S_DEPLOYMENT_NAME":  "k8s.deployment.name",
	"K8S_STATEFULSET_NAME": "k8s.statefulset.name",
	"K8S_CONTAINER_NAME":   "k8s.container.name",
}

const k8sNamespaceFile = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"

func (Kubernetes) Detect(ctx context.Context) (*sdkresource.Resource, error) {
	if os.Getenv("KUBERNETES_SERVICE_HOST") == "" {
		return sdkresource.Empty(), nil
	}

	attrs := envAttrs(k8sEnvMapping)
	if !hasAttr(attrs, "k8s.pod.name") {
		if hostname := os.Getenv("HOSTNAME"); hostname != "" {
			attrs = append(attrs, attribute.String("k8s.pod.name", hostname))
		}
	}
	if !hasAttr(attrs, "k8s.namespace.name") {
		if data, err := os.ReadFile(k8sNamespaceFile); err == nil {
			if ns := strings.TrimSpace(string(data)); ns != "" {
				attrs = append(attrs, attribute.String("k8s.namespace.name", ns))
			}
		}
	}
	return sdkresource.NewSchemaless(attrs...), nil
}

// Cloud detects the cloud provider and its region, account, and
// platform attributes from provider-specific environment variables.
type Cloud struct{}

var awsEnvMapping = map[string]string{
	"AWS_REGION":                      "cloud.region",
	"AWS_DEFAULT_REGION":              "cloud.region",
	"AWS_ACCOUNT_ID":                  "cloud.account.id",
	"ECS_CLUSTER":                     "aws.ecs.cluster.name",
	"ECS_TASK_ARN":                    "aws.ecs.task.arn",
	"ECS_TASK_DEFINITION_FAMILY":      "aws.ecs.task.family",
	"AWS_LAMBDA_FUNCTION_NAME":        "faas.name",
	"AWS_LAMBDA_FUNCTION_VERSION":     "faas.version",
	"AWS_LAMBDA_LOG_GROUP_NAME":       "aws.lambda.log_group",
	"AWS_LAMBDA_FUNCTION_MEMORY_SIZE": "faas.max_memory",
}

var gcpEnvMapping = map[string]string{
	"GOOGLE_CLOUD_PROJECT":    "cloud.account.id",
	"GCLOUD_PROJECT":          "cloud.account.id",
	"GCP_PROJECT":             "cloud.account.id",
	"GOOGLE_CLOUD_REGION":     "cloud.region",
	"K_SERVICE":               "faas.name",
	"K_REVISION":              "faas.version",
	"K_CONFIGURATION":         "gcp.cloud_run.configuration",
	"FUNCTION_NAME":           "faas.name",
	"FUNCTION_TARGET":         "faas.trigger",
	"FUNCTION_SIGNATURE_TYPE": "gcp.function.signature_type",
}

var azureEnvMapping = map[string]string{
	"AZURE_SUBSCRIPTION_ID":       "cloud.account.id",
	"AZURE_RESOURCE_GROUP":        "azure.resource_group",
	"WEBSITE_SITE_NAME":           "faas.name",
	"FUNCTIONS_EXTENSION_VERSION": "azure.functions.version",
	"WEBSITE_INSTANCE_ID":         "faas.instance",
	"REGION_NAME":                 "cloud.region",
}

func (Cloud) Detect(ctx context.Context) (*sdkresource.Resource, error) {
	switch {
	case anyEnvSet("AWS_REGION", "AWS_DEFAULT_REGION", "AWS_LAMBDA_FUNCTION_NAME",
		"ECS_CONTAINER_METADATA_URI", "AWS_EXECUTION_ENV"):
		attrs := append([]attribute.KeyValue{
			attribute.String("cloud.provider", "aws"),
		}, envAttrs(awsEnvMapping)...)
		return sdkresource.NewSchemaless(attrs...), nil

	case anyEnvSet("GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT",
		"K_SERVICE", "FUNCTION_NAME"):
		attrs := append([]attribute.KeyValue{
			attribute.String("cloud.provider", "gcp"),
		}, envAttrs(gcpEnvMapping)...)
		return sdkresource.NewSchemaless(attrs...), nil

	case anyEnvSet("WEBSITE_SITE_NAME", "AZURE_FUNCTIONS_ENVIRONMENT", "AZURE_SUBSCRIPTION_ID"):
		attrs := append([]attribute.KeyValue{
			attribute.String("cloud.provider", "azure"),
		}, envAttrs(azureEnvMapping)...)
		return sdkresource.NewSchemaless(attrs...), nil
	}
	return sdkresource.Empty(), nil
}

// Serverless detects the FaaS runtime identity across Lambda, Cloud
// Run, Cloud Functions, and Azure Functions.
type Serverless struct{}

func (Serverless) Detect(ctx context.Context) (*sdkresource.Resource, error) {
	var attrs []attribute.KeyValue
	switch {
	case os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "":
		attrs = append(attrs, attribute.String("faas.name", os.Getenv("AWS_LAMBDA_FUNCTION_NAME")))
		if v := os.Getenv("AWS_LAMBDA_FUNCTION_VERSION"); v != "" {
			attrs = append(attrs, attribute.String("faas.version", v))
		}
	case os.Getenv("K_SERVICE") != "":
		attrs = append(attrs, attribute.String("faas.name", os.Getenv("K_SERVICE")))
		if v := os.Getenv("K_REVISION"); v != "" {
			attrs = append(attrs, attribute.String("faas.version", v))
		}
	case os.Getenv("FUNCTION_NAME") != "":
		attrs = append(attrs, attribute.String("faas.name", os.Getenv("FUNCTION_NAME")))
		if v := os.Getenv("FUNCTION_TARGET"); v != "" {
			attrs = append(attrs, attribute.String("faas.trigger", v))
		}
	case os.Getenv("WEBSITE_SITE_NAME") != "":
		attrs = append(attrs, attribute.String("faas.name", os.Getenv("WEBSITE_SITE_NAME")))
		if v := os.Getenv("WEBSITE_INSTANCE_ID"); v != "" {
			attrs = append(attrs, attribute.String("faas.instance", v))
		}
	default:
		return sdkresource.Empty(), nil
	}
	return sdkresource.NewSchemaless(attrs...), nil
}

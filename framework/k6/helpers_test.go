package k6

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	apiextfake "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset/fake"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/redhat/tempo-loadgen/framework/gvr"
)

// fakeClients backs the k6 package tests with fake clientsets
type fakeClients struct {
	client    kubernetes.Interface
	dynamic   dynamic.Interface
	apiext    apiextensionsclient.Interface
	namespace string
	logger    logrus.FieldLogger
}

func newFakeClients(t *testing.T, namespace string, objects ...runtime.Object) *fakeClients {
	t.Helper()

	scheme := runtime.NewScheme()
	listKinds := map[schema.GroupVersionResource]string{
		gvr.TestRun:        "TestRunList",
		gvr.ServiceMonitor: "ServiceMonitorList",
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &fakeClients{
		client:    k8sfake.NewSimpleClientset(objects...),
		dynamic:   dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme, listKinds),
		apiext:    apiextfake.NewSimpleClientset(),
		namespace: namespace,
		logger:    logger,
	}
}

func (f *fakeClients) Client() kubernetes.Interface { return f.client }

func (f *fakeClients) DynamicClient() dynamic.Interface { return f.dynamic }

func (f *fakeClients) APIExtensionsClient() apiextensionsclient.Interface { return f.apiext }

func (f *fakeClients) Context() context.Context { return context.Background() }

func (f *fakeClients) Namespace() string { return f.namespace }

func (f *fakeClients) Logger() logrus.FieldLogger { return f.logger }

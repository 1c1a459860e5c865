package pubsub

import (
	"context"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"cloud.google.com/go/pubsub/v2/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPublisherPublishesJSON(t *testing.T) {
	ctx := context.Background()

	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := pubsub.NewClient(ctx, "project-id", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer client.Close()

	_, err = srv.GServer.CreateTopic(ctx, &pubsubpb.Topic{Name: "projects/project-id/topics/adforge-analytics"})
	require.NoError(t, err)

	pub := New(client)
	id, err := pub.Publish(ctx, "adforge-analytics", map[string]any{"event": "ad_click"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	require.JSONEq(t, `{"event":"ad_click"}`, string(msgs[0].Data))
	require.Equal(t, "application/json", msgs[0].Attributes["content_type"])

	_, err = pub.Publish(ctx, "adforge-analytics", map[string]any{"event": "ad_view"})
	require.NoError(t, err)
	require.Len(t, pub.publishers, 1)

	require.NoError(t, pub.Close())
	require.Empty(t, pub.publishers)
}

func TestPublisherValidation(t *testing.T) {
	t.Parallel()

	var nilPub *Publisher
	_, err := nilPub.Publish(context.Background(), "topic", "x")
	require.Error(t, err)
	require.NoError(t, nilPub.Close())

	_, err = Open(context.Background(), "")
	require.Error(t, err)
}

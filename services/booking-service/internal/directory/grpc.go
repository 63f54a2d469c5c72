package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/localbook/libs/grpcx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service exposed by the directory owner.
// Requests and responses are google.protobuf.Struct messages.
const ServiceName = "localbook.directory.v1.DirectoryService"

const (
	MethodGetCustomer = "GetCustomer"
	MethodGetBusiness = "GetBusiness"
	MethodGetService  = "GetService"
)

type GRPC struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

func NewGRPC(ctx context.Context, addr string) (*GRPC, error) {
	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	return &GRPC{conn: conn, timeout: 3 * time.Second}, nil
}

func (g *GRPC) Close() error {
	return g.conn.Close()
}

func (g *GRPC) ResolveCustomer(ctx context.Context, id string) (Customer, error) {
	fields, err := g.lookup(ctx, MethodGetCustomer, id)
	if err != nil {
		return Customer{}, err
	}
	return Customer{ID: id, DisplayName: fields["display_name"].GetStringValue()}, nil
}

func (g *GRPC) ResolveBusiness(ctx context.Context, id string) (Business, error) {
	fields, err := g.lookup(ctx, MethodGetBusiness, id)
	if err != nil {
		return Business{}, err
	}
	b := Business{
		ID:      id,
		OwnerID: fields["owner_id"].GetStringValue(),
		Name:    fields["name"].GetStringValue(),
	}
	if b.OwnerID == "" {
		return Business{}, fmt.Errorf("directory: business %s has no owner", id)
	}
	return b, nil
}

func (g *GRPC) ResolveService(ctx context.Context, id string) (Service, error) {
	fields, err := g.lookup(ctx, MethodGetService, id)
	if err != nil {
		return Service{}, err
	}
	return Service{
		ID:         id,
		BusinessID: fields["business_id"].GetStringValue(),
		Name:       fields["name"].GetStringValue(),
	}, nil
}

func (g *GRPC) lookup(ctx context.Context, method, id string) (map[string]*structpb.Value, error) {
	req, err := structpb.NewStruct(map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, id)
		}
		return nil, fmt.Errorf("directory %s: %w", method, err)
	}
	return resp.GetFields(), nil
}

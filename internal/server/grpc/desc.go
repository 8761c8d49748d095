package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "voxnote.ChunkService"

// Method names of ChunkService.
const (
	MethodPlanChunks     = "PlanChunks"
	MethodSelectModel    = "SelectModel"
	MethodTranscribeFile = "TranscribeFile"
)

// ChunkServiceServer is implemented by ChunkService. Requests and responses
// are google.protobuf.Struct documents.
type ChunkServiceServer interface {
	PlanChunks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SelectModel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TranscribeFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(ChunkServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ChunkServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ChunkServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var chunkServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChunkServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: MethodPlanChunks,
			Handler:    unaryHandler(MethodPlanChunks, ChunkServiceServer.PlanChunks),
		},
		{
			MethodName: MethodSelectModel,
			Handler:    unaryHandler(MethodSelectModel, ChunkServiceServer.SelectModel),
		},
		{
			MethodName: MethodTranscribeFile,
			Handler:    unaryHandler(MethodTranscribeFile, ChunkServiceServer.TranscribeFile),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "voxnote/chunk_service.proto",
}

// RegisterChunkServiceServer registers srv on s.
func RegisterChunkServiceServer(s grpc.ServiceRegistrar, srv ChunkServiceServer) {
	s.RegisterService(&chunkServiceDesc, srv)
}

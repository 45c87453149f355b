/*
 * Copyright 2026 The Quire Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mongo

import (
	"fmt"
	"reflect"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/quire-team/quire/api/types"
)

var tID = reflect.TypeOf(types.ID(""))

// NewRegistry returns a registry that stores types.ID as ObjectID. Both are
// 12 bytes, so the conversion is lossless.
func NewRegistry() *bson.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(tID, bson.ValueEncoderFunc(idEncoder))
	reg.RegisterTypeDecoder(tID, bson.ValueDecoderFunc(idDecoder))
	return reg
}

func idEncoder(_ bson.EncodeContext, vw bson.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tID {
		return bson.ValueEncoderError{Name: "idEncoder", Types: []reflect.Type{tID}, Received: val}
	}

	id := val.Interface().(types.ID)
	if id == "" {
		return vw.WriteNull()
	}

	objectID, err := encodeID(id)
	if err != nil {
		return err
	}
	if err := vw.WriteObjectID(objectID); err != nil {
		return fmt.Errorf("encode error: %w", err)
	}
	return nil
}

func idDecoder(_ bson.DecodeContext, vr bson.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != tID {
		return bson.ValueDecoderError{Name: "idDecoder", Types: []reflect.Type{tID}, Received: val}
	}

	switch vr.Type() {
	case bson.TypeObjectID:
		objectID, err := vr.ReadObjectID()
		if err != nil {
			return fmt.Errorf("decode error: %w", err)
		}
		val.SetString(decodeID(objectID).String())
	case bson.TypeString:
		s, err := vr.ReadString()
		if err != nil {
			return fmt.Errorf("decode error: %w", err)
		}
		val.SetString(s)
	case bson.TypeNull:
		if err := vr.ReadNull(); err != nil {
			return fmt.Errorf("decode error: %w", err)
		}
		val.SetString("")
	default:
		return fmt.Errorf("decode error: cannot decode %v into types.ID", vr.Type())
	}
	return nil
}

// encodeID converts the xid based ID to an ObjectID.
func encodeID(id types.ID) (bson.ObjectID, error) {
	x, err := xid.FromString(id.String())
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("%s: %w", id, types.ErrInvalidID)
	}
	return bson.ObjectID(x), nil
}

// decodeID converts the ObjectID to an xid based ID.
func decodeID(objectID bson.ObjectID) types.ID {
	return types.ID(xid.ID(objectID).String())
}

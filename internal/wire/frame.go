package wire

import "encoding/json"

// RequestFrame is a request sent from the client to the hub.
type RequestFrame struct {
	ReqType     RequestType    `json:"req_type"`
	SeqID       uint32         `json:"seq_id"`
	ReqSubType  RequestSubType `json:"req_sub_type"`
	AgentID     *uint32        `json:"agent_id,omitempty"`
	AgentType   *uint32        `json:"agent_type,omitempty"`
	UserName    *string        `json:"user_name,omitempty"`
	Password    *string        `json:"password,omitempty"`
	SessionToken *string       `json:"sessiontoken,omitempty"`
	ObjID       *string        `json:"obj_id,omitempty"`
	ObjType     *uint32        `json:"obj_type,omitempty"`
	DetailLevel *uint8         `json:"detail_level,omitempty"`
	ActParams   []uint32       `json:"act_params,omitempty"`
	ActType     *uint32        `json:"act_type,omitempty"`
}

// Param is a single name/value parameter entry in params_data.
type Param struct {
	ParamName  string `json:"param_name"`
	ParamValue string `json:"param_value"`
}

// ResponseFrame is a frame received from the hub: either a correlated
// response to a request (SeqID present) or an unsolicited push (SeqID nil).
type ResponseFrame struct {
	ReqType    RequestType     `json:"req_type"`
	SeqID      *uint32         `json:"seq_id,omitempty"`
	ReqResult  uint32          `json:"req_result"`
	ReqSubType RequestSubType  `json:"req_sub_type"`
	AgentID    *uint32         `json:"agent_id,omitempty"`
	AgentType  *uint32         `json:"agent_type,omitempty"`
	SessionToken *string       `json:"sessiontoken,omitempty"`
	ObjID      *string         `json:"obj_id,omitempty"`
	OutData    []json.RawMessage `json:"out_data,omitempty"`
	ParamsData []Param         `json:"params_data,omitempty"`
	Message    *string         `json:"message,omitempty"`
}

// Ok reports whether the response carries a successful result code.
func (r ResponseFrame) Ok() bool { return r.ReqResult == 0 }

// IsPush reports whether this frame is an unsolicited push (no seq_id).
func (r ResponseFrame) IsPush() bool { return r.SeqID == nil }

func uint32Ptr(v uint32) *uint32 { return &v }
func uint8Ptr(v uint8) *uint8    { return &v }
func stringPtr(v string) *string { return &v }

// NewAnnounceFrame builds the Announce request of the login sequence.
func NewAnnounceFrame(seqID uint32, agentType uint32) RequestFrame {
	return RequestFrame{
		ReqType:    RequestAnnounce,
		SeqID:      seqID,
		ReqSubType: SubTypeNone,
		AgentType:  uint32Ptr(agentType),
	}
}

// NewLoginFrame builds the Authenticate request of the login sequence.
func NewLoginFrame(seqID uint32, user, password string, agentID uint32) RequestFrame {
	return RequestFrame{
		ReqType:    RequestLogin,
		SeqID:      seqID,
		ReqSubType: SubTypeNone,
		UserName:   stringPtr(user),
		Password:   stringPtr(password),
		AgentID:    uint32Ptr(agentID),
	}
}

// NewStatusFrame builds a Status (info / fetch_index) request.
func NewStatusFrame(seqID uint32, sessionToken, objID string, detailLevel uint8) RequestFrame {
	return RequestFrame{
		ReqType:      RequestStatus,
		SeqID:        seqID,
		ReqSubType:   SubTypeNone,
		SessionToken: stringPtr(sessionToken),
		ObjID:        stringPtr(objID),
		DetailLevel:  uint8Ptr(detailLevel),
	}
}

// NewSubscribeFrame builds a Subscribe request for a device subtree.
func NewSubscribeFrame(seqID uint32, sessionToken, objID string) RequestFrame {
	return RequestFrame{
		ReqType:      RequestSubscribe,
		SeqID:        seqID,
		ReqSubType:   SubTypeSubscribeRt,
		SessionToken: stringPtr(sessionToken),
		ObjID:        stringPtr(objID),
	}
}

// NewActionFrame builds an Action request.
func NewActionFrame(seqID uint32, sessionToken, objID string, actionType ActionType, value uint32) RequestFrame {
	return RequestFrame{
		ReqType:      RequestAction,
		SeqID:        seqID,
		ReqSubType:   SubTypeSetActionObj,
		SessionToken: stringPtr(sessionToken),
		ObjID:        stringPtr(objID),
		ActType:      uint32Ptr(uint32(actionType)),
		ActParams:    []uint32{value},
	}
}

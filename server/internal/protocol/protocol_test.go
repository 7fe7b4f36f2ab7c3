package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindExtraction(t *testing.T) {
	raw := []byte(`{"kind":"Login","data":{"user_id":"alice"}}`)
	assert.Equal(t, KindLogin, Kind(raw))

	assert.Equal(t, "", Kind([]byte(`{}`)))
	assert.Equal(t, "", Kind([]byte(`not json`)))
}

func TestPayloadExtraction(t *testing.T) {
	assert.Nil(t, Payload([]byte(`{"kind":"Logout"}`)))
	assert.Nil(t, Payload([]byte(`{"kind":"JoinRoom","data":null}`)))

	raw := Payload([]byte(`{"kind":"JoinRoom","data":{"code":"AB12"}}`))
	require.NotNil(t, raw)

	var p JoinRoomPayload
	require.NoError(t, json.Unmarshal(raw, &p))
	require.NotNil(t, p.Code)
	assert.Equal(t, "AB12", *p.Code)
}

func TestJoinRoomPayloadDistinguishesAbsentCode(t *testing.T) {
	var p JoinRoomPayload
	require.NoError(t, json.Unmarshal([]byte(`{}`), &p))
	assert.Nil(t, p.Code, "absent code must decode as nil, not empty string")

	var q JoinRoomPayload
	require.NoError(t, json.Unmarshal([]byte(`{"code":""}`), &q))
	require.NotNil(t, q.Code)
	assert.Equal(t, "", *q.Code)
}

func TestEncodeResultFrame(t *testing.T) {
	data, err := Encode(ResultFrame(ResultOfJoinRoom, false, string(JoinErrRoomFull)))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"kind":"Result","data":{"result_of":"JoinRoom","success":false,"info":"RoomFull"}}`,
		string(data))

	data, err = Encode(ResultFrame(ResultOfJoinRoom, true, "AB12"))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"kind":"Result","data":{"result_of":"JoinRoom","success":true,"info":"AB12"}}`,
		string(data))
}

func TestEncodeBroadcastFrames(t *testing.T) {
	data, err := Encode(GameStartedFrame())
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"GameStarted"}`, string(data))

	data, err = Encode(TurnUpdateFrame(42))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"TurnUpdate","data":{"transient_id":42}}`, string(data))

	data, err = Encode(RemoveFromRoomFrame(ReasonDisconnected))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"RemoveFromRoom","data":{"reason":"Disconnected"}}`, string(data))
}

func TestEncodeRestoreStateFrame(t *testing.T) {
	data, err := Encode(RestoreStateFrame("XY34", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"RestoreState","data":{"code":"XY34"}}`, string(data))

	view := []byte(`{"word":"piano","turn":7}`)
	data, err = Encode(RestoreStateFrame("XY34", view))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"kind":"RestoreState","data":{"code":"XY34","game":{"word":"piano","turn":7}}}`,
		string(data))
}

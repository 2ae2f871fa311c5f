package testutil

// GEXF fixtures shared by the ingestion, scene, TUI and server tests.

// SocialGEXF is a small interaction graph. Edge attributes carry the
// creation time, the interaction type and the two account handles.
//
// UTC hours per node: A {4,3,5}, B {4,2}, C {3,2}, D {5,10}, E {10,22}, F {22}.
// With the default [2,6] window E and F have no visible edge.
var SocialGEXF = `<?xml version="1.0" encoding="UTF-8"?>
<gexf xmlns="http://www.gexf.net/1.2draft" xmlns:viz="http://www.gexf.net/1.2draft/viz" version="1.2">
  <graph defaultedgetype="directed" mode="static">
    <attributes class="edge">
      <attribute id="0" title="created_at" type="string"/>
      <attribute id="1" title="type" type="string"/>
      <attribute id="2" title="from_user" type="string"/>
      <attribute id="3" title="to_user" type="string"/>
    </attributes>
    <nodes>
      <node id="A"/>
      <node id="B"/>
      <node id="C"/>
      <node id="D"/>
      <node id="E"/>
      <node id="F"/>
    </nodes>
    <edges>
      <edge id="ab" source="A" target="B">
        <attvalues>
          <attvalue for="0" value="2024-08-29T04:10:00Z"/>
          <attvalue for="1" value="reply"/>
          <attvalue for="2" value="alice"/>
          <attvalue for="3" value="bob"/>
        </attvalues>
      </edge>
      <edge id="ac" source="A" target="C">
        <attvalues>
          <attvalue for="0" value="2024-08-29T03:00:00Z"/>
          <attvalue for="1" value="quote"/>
          <attvalue for="2" value="alice"/>
          <attvalue for="3" value="carol"/>
        </attvalues>
      </edge>
      <edge id="da" source="D" target="A">
        <attvalues>
          <attvalue for="0" value="2024-08-29T05:59:00Z"/>
          <attvalue for="1" value="mention"/>
          <attvalue for="2" value="dave"/>
          <attvalue for="3" value="alice"/>
        </attvalues>
      </edge>
      <edge id="de" source="D" target="E">
        <attvalues>
          <attvalue for="0" value="2024-08-29T10:00:00Z"/>
          <attvalue for="1" value="retweet"/>
          <attvalue for="2" value="dave"/>
          <attvalue for="3" value="erin"/>
        </attvalues>
      </edge>
      <edge id="ef" source="E" target="F">
        <attvalues>
          <attvalue for="0" value="2024-08-29T22:30:00Z"/>
          <attvalue for="1" value="like"/>
          <attvalue for="2" value="erin"/>
          <attvalue for="3" value="frank"/>
        </attvalues>
      </edge>
      <edge id="cb" source="C" target="B">
        <attvalues>
          <attvalue for="0" value="2024-08-29T02:00:00Z"/>
          <attvalue for="1" value="reply"/>
          <attvalue for="2" value="carol"/>
          <attvalue for="3" value="bob"/>
        </attvalues>
      </edge>
    </edges>
  </graph>
</gexf>
`

// AirlinesGEXF is a route map with viz data and a custom color attribute
// declared with id "1".
var AirlinesGEXF = `<?xml version="1.0" encoding="UTF-8"?>
<gexf xmlns="http://www.gexf.net/1.3" xmlns:viz="http://www.gexf.net/1.3/viz" version="1.3">
  <graph defaultedgetype="undirected">
    <attributes class="node">
      <attribute id="0" title="country" type="string">
        <default>unknown</default>
      </attribute>
      <attribute id="1" title="custom_color" type="string"/>
    </attributes>
    <nodes>
      <node id="CDG" label="Paris Charles de Gaulle">
        <attvalues>
          <attvalue for="0" value="France"/>
          <attvalue for="1" value="#e6550d"/>
        </attvalues>
        <viz:color r="230" g="85" b="13"/>
        <viz:size value="12.5"/>
        <viz:position x="2.55" y="49.01" z="0"/>
      </node>
      <node id="JFK" label="New York JFK">
        <attvalues>
          <attvalue for="0" value="United States"/>
        </attvalues>
        <viz:color r="49" g="130" b="189" a="0.5"/>
      </node>
      <node id="LHR" label="London Heathrow"/>
    </nodes>
    <edges>
      <edge id="0" source="CDG" target="JFK" weight="2"/>
      <edge id="1" source="CDG" target="LHR"/>
      <edge source="JFK" target="LHR" label="transatlantic"/>
    </edges>
  </graph>
</gexf>
`

// MalformedGEXF is truncated mid-document.
var MalformedGEXF = `<?xml version="1.0"?><gexf><graph><nodes><node id="a"`

// DanglingEdgeGEXF references a node that is not declared.
var DanglingEdgeGEXF = `<gexf><graph><nodes><node id="a"/></nodes><edges><edge source="a" target="zz"/></edges></graph></gexf>`

package utils

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// PipelineSpec describes the parts of a graphics pipeline that differ
// between samples. Everything else is fixed: triangle lists, one colour
// attachment without blending, dynamic viewport and scissor.
type PipelineSpec struct {
	Layout         core1_0.PipelineLayout
	Flags          core1_0.PipelineCreateFlags
	VertexShader   string
	FragmentShader string

	// nil means no vertex buffers
	VertexInput *core1_0.PipelineVertexInputStateCreateInfo
	CullMode    core1_0.CullModeFlags
	DepthTest   bool
}

func (i *SampleInfo) CreateGraphicsPipeline(spec PipelineSpec) (core1_0.Pipeline, error) {
	vertShader, err := i.CreateShaderModule(spec.VertexShader)
	if err != nil {
		return core1_0.Pipeline{}, err
	}
	defer i.DeviceDriver.DestroyShaderModule(vertShader, nil)

	fragShader, err := i.CreateShaderModule(spec.FragmentShader)
	if err != nil {
		return core1_0.Pipeline{}, err
	}
	defer i.DeviceDriver.DestroyShaderModule(fragShader, nil)

	vertexInput := spec.VertexInput
	if vertexInput == nil {
		vertexInput = &core1_0.PipelineVertexInputStateCreateInfo{}
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   "main",
	}

	// counts only, the values come from CmdSetViewport and CmdSetScissor
	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{{}},
		Scissors:  []core1_0.Rect2D{{}},
	}

	dynamic := &core1_0.PipelineDynamicStateCreateInfo{
		DynamicStates: []core1_0.DynamicState{core1_0.DynamicStateViewport, core1_0.DynamicStateScissor},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    spec.CullMode,
		FrontFace:   core1_0.FrontFaceCounterClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	depthStencil := &core1_0.PipelineDepthStencilStateCreateInfo{
		DepthTestEnable:  spec.DepthTest,
		DepthWriteEnable: spec.DepthTest,
		DepthCompareOp:   core1_0.CompareOpLess,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	pipelines, _, err := i.DeviceDriver.CreateGraphicsPipelines(nil, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Flags: spec.Flags,
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				vertStage,
				fragStage,
			},
			VertexInputState:   vertexInput,
			InputAssemblyState: inputAssembly,
			ViewportState:      viewport,
			RasterizationState: rasterization,
			MultisampleState:   multisample,
			DepthStencilState:  depthStencil,
			ColorBlendState:    colorBlend,
			DynamicState:       dynamic,
			Layout:             spec.Layout,
			RenderPass:         i.RenderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	)
	if err != nil {
		return core1_0.Pipeline{}, errors.Wrapf(err, "create pipeline from %s and %s", spec.VertexShader, spec.FragmentShader)
	}

	return pipelines[0], nil
}
